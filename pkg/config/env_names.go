package config

const (
	EnvPrefix = "smartwish"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SMARTWISH_DB_DSN"
	EnvDBHost = "SMARTWISH_DB_HOST"
	EnvDBUser = "SMARTWISH_DB_USER"
	EnvDBName = "SMARTWISH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
