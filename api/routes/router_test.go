package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartwish/kiosk-backend/internal/ledger"
	"github.com/smartwish/kiosk-backend/internal/reports"
	"github.com/smartwish/kiosk-backend/internal/settlement"
	"github.com/smartwish/kiosk-backend/internal/trigger"
	"github.com/smartwish/kiosk-backend/pkg/config"
	"github.com/smartwish/kiosk-backend/pkg/db/models"
	"github.com/smartwish/kiosk-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubResolver struct {
	snap settlement.PartySnapshot
}

func (s stubResolver) Resolve(ctx context.Context, kioskID uuid.UUID) (settlement.PartySnapshot, error) {
	return s.snap, nil
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.LedgerEntry{}, &models.PrintJob{}))

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	cfg := &config.Config{}
	cfg.App.Env = "test"

	managerID := uuid.New()
	repID := uuid.New()
	resolver := stubResolver{snap: settlement.PartySnapshot{
		StoreID:             uuid.New(),
		ManagerID:           &managerID,
		ManagerRatePercent:  decimal.RequireFromString("20"),
		SalesRepID:          &repID,
		SalesRepRatePercent: decimal.RequireFromString("10"),
	}}

	ledgerRepo := ledger.NewRepository(conn)
	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Ledger:     ledgerRepo,
		Resolver:   resolver,
		Calculator: settlement.NewCalculator(decimal.RequireFromString("2.9"), decimal.RequireFromString("0.30")),
		Logger:     logg,
	})
	require.NoError(t, err)

	triggerService, err := trigger.NewService(trigger.ServiceParams{
		Jobs:       trigger.NewRepository(conn),
		Ledger:     ledgerRepo,
		Settlement: settlementService,
		Tx:         gormTxRunner{db: conn},
		ClaimTTL:   time.Hour,
		Logger:     logg,
	})
	require.NoError(t, err)

	reportsService, err := reports.NewService(reports.NewRepository(conn))
	require.NoError(t, err)

	return NewRouter(cfg, logg, stubPinger{}, stubPinger{}, nil,
		triggerService, settlementService, reportsService, ledgerRepo)
}

func postJSON(t *testing.T, handler http.Handler, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func printEventBody(ref string) map[string]any {
	return map[string]any{
		"kiosk_id":        uuid.NewString(),
		"transaction_ref": ref,
		"kind":            "print_greeting_card",
		"payment_method":  "card",
		"gross_amount":    "39.99",
		"processing_fees": "1.25",
		"state_tax":       "3.21",
		"cost_basis":      "27.92",
	}
}

func TestHealthLive(t *testing.T) {
	handler := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-SmartWish-Env"))
}

func TestPrintEventSettlesCommission(t *testing.T) {
	handler := newTestRouter(t)

	rec := postJSON(t, handler, "/api/v1/events/print", printEventBody("order-1001"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	assert.Equal(t, "processed", data["commission_status"])
	assert.Equal(t, false, data["already_processed"])

	entry, ok := data["ledger_entry"].(map[string]any)
	require.True(t, ok, "expected a ledger entry in the response")
	assert.Equal(t, "7.61", entry["net_distributable"])
	assert.Equal(t, "1.52", entry["manager_earnings"])
	assert.Equal(t, "0.76", entry["sales_rep_earnings"])
	assert.Equal(t, "5.33", entry["platform_earnings"])
}

func TestPrintEventReplayIsIdempotent(t *testing.T) {
	handler := newTestRouter(t)
	body := printEventBody("order-replay")

	first := postJSON(t, handler, "/api/v1/events/print", body)
	require.Equal(t, http.StatusCreated, first.Code)
	second := postJSON(t, handler, "/api/v1/events/print", body)
	require.Equal(t, http.StatusOK, second.Code)

	firstEntry := decodeData(t, first)["ledger_entry"].(map[string]any)
	secondEntry := decodeData(t, second)["ledger_entry"].(map[string]any)
	assert.Equal(t, firstEntry["id"], secondEntry["id"])
	assert.Equal(t, true, decodeData(t, second)["already_processed"])
}

func TestPrintEventRejectsMalformedBody(t *testing.T) {
	handler := newTestRouter(t)

	rec := postJSON(t, handler, "/api/v1/events/print", map[string]any{
		"kiosk_id": "not-a-uuid",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGiftCardLifecycleOverHTTP(t *testing.T) {
	handler := newTestRouter(t)

	// Purchase a 50.00 custom card.
	purchase := postJSON(t, handler, "/api/v1/events/gift-card-sale", map[string]any{
		"kiosk_id":        uuid.NewString(),
		"transaction_ref": "ccp-100",
		"kind":            "custom_gift_card_purchase",
		"gross_amount":    "50.00",
		"processing_fees": "1.75",
	})
	require.Equal(t, http.StatusCreated, purchase.Code, purchase.Body.String())
	purchaseID := decodeData(t, purchase)["id"].(string)

	// Redeem 20.00 of it.
	redeem := postJSON(t, handler, "/api/v1/events/redemption", map[string]any{
		"kiosk_id":               uuid.NewString(),
		"transaction_ref":        "redeem-100",
		"purchase_ledger_id":     purchaseID,
		"amount_redeemed":        "20.00",
		"kiosk_discount_percent": "12",
		"store_discount_percent": "3",
		"service_fee_percent":    "10",
	})
	require.Equal(t, http.StatusCreated, redeem.Code, redeem.Body.String())

	entry := decodeData(t, redeem)
	assert.Equal(t, "16.70", entry["store_payout"])
	assert.Equal(t, "0.60", entry["manager_earnings"])
	assert.Equal(t, "-0.40", entry["platform_earnings"])
	assert.Equal(t, "0.70", entry["estimated_card_fee"])

	// Over-redeeming the remainder fails.
	overdraw := postJSON(t, handler, "/api/v1/events/redemption", map[string]any{
		"kiosk_id":            uuid.NewString(),
		"transaction_ref":     "redeem-101",
		"purchase_ledger_id":  purchaseID,
		"amount_redeemed":     "40.00",
		"service_fee_percent": "10",
	})
	assert.Equal(t, http.StatusBadRequest, overdraw.Code)

	// The purchase detail lists the linked redemption.
	detailReq := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/"+purchaseID, nil)
	detailRec := httptest.NewRecorder()
	handler.ServeHTTP(detailRec, detailReq)
	require.Equal(t, http.StatusOK, detailRec.Code)
	detail := decodeData(t, detailRec)
	redemptions, ok := detail["redemptions"].([]any)
	require.True(t, ok)
	assert.Len(t, redemptions, 1)
}

func TestDailyReportOverHTTP(t *testing.T) {
	handler := newTestRouter(t)

	for i := 0; i < 3; i++ {
		rec := postJSON(t, handler, "/api/v1/events/print", printEventBody(fmt.Sprintf("order-%d", i)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	from := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	to := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/daily?from="+from+"&to="+to, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.EqualValues(t, 3, envelope.Data[0]["entries"])
	assert.Equal(t, "119.97", envelope.Data[0]["gross_amount"])
}

func TestReportRequiresWindow(t *testing.T) {
	handler := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/kiosks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLedgerEntryNotFound(t *testing.T) {
	handler := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
