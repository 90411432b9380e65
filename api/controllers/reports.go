package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/smartwish/kiosk-backend/api/responses"
	"github.com/smartwish/kiosk-backend/api/validators"
	"github.com/smartwish/kiosk-backend/internal/reports"
	"github.com/smartwish/kiosk-backend/pkg/enums"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
	"github.com/smartwish/kiosk-backend/pkg/logger"
)

type kioskTotalsResponse struct {
	KioskID          uuid.UUID `json:"kiosk_id"`
	Entries          int64     `json:"entries"`
	GrossAmount      string    `json:"gross_amount"`
	NetDistributable string    `json:"net_distributable"`
	PlatformEarnings string    `json:"platform_earnings"`
	ManagerEarnings  string    `json:"manager_earnings"`
	SalesRepEarnings string    `json:"sales_rep_earnings"`
	StorePayout      string    `json:"store_payout"`
}

type partyTotalsResponse struct {
	PartyID  uuid.UUID `json:"party_id"`
	Entries  int64     `json:"entries"`
	Earnings string    `json:"earnings"`
}

type dailyTotalsResponse struct {
	Day              string `json:"day"`
	Entries          int64  `json:"entries"`
	GrossAmount      string `json:"gross_amount"`
	NetDistributable string `json:"net_distributable"`
	PlatformEarnings string `json:"platform_earnings"`
	ManagerEarnings  string `json:"manager_earnings"`
	SalesRepEarnings string `json:"sales_rep_earnings"`
}

func reportQuery(r *http.Request) (reports.Query, error) {
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return reports.Query{}, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return reports.Query{}, err
	}

	query := reports.Query{From: from, To: to}
	if raw := r.URL.Query().Get("type"); raw != "" {
		txType, err := enums.ParseTransactionType(raw)
		if err != nil {
			return reports.Query{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter")
		}
		query.TransactionType = &txType
	}
	return query, nil
}

// ReportByKiosk sums ledger entries per kiosk over a window.
func ReportByKiosk(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := reportQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ByKiosk(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]kioskTotalsResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, kioskTotalsResponse{
				KioskID:          row.KioskID,
				Entries:          row.Entries,
				GrossAmount:      row.GrossAmount.StringFixed(2),
				NetDistributable: row.NetDistributable.StringFixed(2),
				PlatformEarnings: row.PlatformEarnings.StringFixed(2),
				ManagerEarnings:  row.ManagerEarnings.StringFixed(2),
				SalesRepEarnings: row.SalesRepEarnings.StringFixed(2),
				StorePayout:      row.StorePayout.StringFixed(2),
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// ReportByManager sums commission owed per manager over a window.
func ReportByManager(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return partyReport(svc.ByManager, logg)
}

// ReportBySalesRep sums commission owed per sales rep over a window.
func ReportBySalesRep(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return partyReport(svc.BySalesRep, logg)
}

func partyReport(
	fetch func(ctx context.Context, q reports.Query) ([]reports.PartyTotals, error),
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := reportQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := fetch(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]partyTotalsResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, partyTotalsResponse{
				PartyID:  row.PartyID,
				Entries:  row.Entries,
				Earnings: row.Earnings.StringFixed(2),
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// ReportDaily sums ledger entries per calendar day over a window.
func ReportDaily(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query, err := reportQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Daily(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]dailyTotalsResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, dailyTotalsResponse{
				Day:              row.Day,
				Entries:          row.Entries,
				GrossAmount:      row.GrossAmount.StringFixed(2),
				NetDistributable: row.NetDistributable.StringFixed(2),
				PlatformEarnings: row.PlatformEarnings.StringFixed(2),
				ManagerEarnings:  row.ManagerEarnings.StringFixed(2),
				SalesRepEarnings: row.SalesRepEarnings.StringFixed(2),
			})
		}
		responses.WriteSuccess(w, out)
	}
}
