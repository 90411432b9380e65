package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartwish/kiosk-backend/pkg/db/models"
	"github.com/smartwish/kiosk-backend/pkg/enums"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.LedgerEntry{}))
	return conn
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedEntry(t *testing.T, conn *gorm.DB, entry models.LedgerEntry) models.LedgerEntry {
	t.Helper()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.TransactionRef == "" {
		entry.TransactionRef = "ref-" + entry.ID.String()
	}
	require.NoError(t, conn.Create(&entry).Error)
	return entry
}

func TestByKioskSumsPerKiosk(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	kioskA := uuid.New()
	kioskB := uuid.New()
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	seedEntry(t, conn, models.LedgerEntry{
		KioskID:          kioskA,
		TransactionType:  enums.TransactionTypePrintGreetingCard,
		PaymentMethod:    enums.PaymentMethodCard,
		GrossAmount:      amt("39.99"),
		NetDistributable: amt("7.61"),
		PlatformEarnings: amt("5.33"),
		ManagerEarnings:  amt("1.52"),
		SalesRepEarnings: amt("0.76"),
		CreatedAt:        day,
	})
	seedEntry(t, conn, models.LedgerEntry{
		KioskID:          kioskA,
		TransactionType:  enums.TransactionTypePrintSticker,
		PaymentMethod:    enums.PaymentMethodCard,
		GrossAmount:      amt("4.99"),
		NetDistributable: amt("3.05"),
		PlatformEarnings: amt("2.14"),
		ManagerEarnings:  amt("0.61"),
		SalesRepEarnings: amt("0.30"),
		CreatedAt:        day.Add(time.Hour),
	})
	seedEntry(t, conn, models.LedgerEntry{
		KioskID:          kioskB,
		TransactionType:  enums.TransactionTypePrintGreetingCard,
		PaymentMethod:    enums.PaymentMethodCard,
		GrossAmount:      amt("10.00"),
		NetDistributable: amt("8.00"),
		PlatformEarnings: amt("8.00"),
		CreatedAt:        day,
	})

	rows, err := repo.ByKiosk(context.Background(), Query{
		From: day.Add(-time.Hour),
		To:   day.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	totals := map[uuid.UUID]KioskTotals{}
	for _, row := range rows {
		totals[row.KioskID] = row
	}
	require.Contains(t, totals, kioskA)
	assert.EqualValues(t, 2, totals[kioskA].Entries)
	assert.Equal(t, "44.98", totals[kioskA].GrossAmount.StringFixed(2))
	assert.Equal(t, "10.66", totals[kioskA].NetDistributable.StringFixed(2))
	assert.Equal(t, "2.13", totals[kioskA].ManagerEarnings.StringFixed(2))
	assert.Equal(t, "1.06", totals[kioskA].SalesRepEarnings.StringFixed(2))
	assert.EqualValues(t, 1, totals[kioskB].Entries)
}

func TestByKioskWindowIsHalfOpen(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	seedEntry(t, conn, models.LedgerEntry{
		KioskID:         uuid.New(),
		TransactionType: enums.TransactionTypePrintGreetingCard,
		PaymentMethod:   enums.PaymentMethodCard,
		GrossAmount:     amt("5.00"),
		CreatedAt:       day.Add(24 * time.Hour),
	})

	rows, err := repo.ByKiosk(context.Background(), Query{From: day, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestByManagerSkipsUnattributedEntries(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	day := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	managerID := uuid.New()
	seedEntry(t, conn, models.LedgerEntry{
		KioskID:         uuid.New(),
		TransactionType: enums.TransactionTypePrintGreetingCard,
		PaymentMethod:   enums.PaymentMethodCard,
		ManagerID:       &managerID,
		ManagerEarnings: amt("1.52"),
		CreatedAt:       day,
	})
	seedEntry(t, conn, models.LedgerEntry{
		KioskID:         uuid.New(),
		TransactionType: enums.TransactionTypeCustomCardRedeem,
		PaymentMethod:   enums.PaymentMethodGiftCard,
		ManagerID:       &managerID,
		ManagerEarnings: amt("0.60"),
		CreatedAt:       day,
	})
	// Ecard sale with no manager attribution.
	seedEntry(t, conn, models.LedgerEntry{
		KioskID:         uuid.New(),
		TransactionType: enums.TransactionTypeECard,
		PaymentMethod:   enums.PaymentMethodCard,
		CreatedAt:       day,
	})

	rows, err := repo.ByManager(context.Background(), Query{
		From: day.Add(-time.Hour),
		To:   day.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, managerID, rows[0].PartyID)
	assert.EqualValues(t, 2, rows[0].Entries)
	assert.Equal(t, "2.12", rows[0].Earnings.StringFixed(2))
}

func TestDailyGroupsByCalendarDay(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	dayOne := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	dayTwo := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)

	for _, created := range []time.Time{dayOne, dayOne.Add(4 * time.Hour), dayTwo} {
		seedEntry(t, conn, models.LedgerEntry{
			KioskID:          uuid.New(),
			TransactionType:  enums.TransactionTypePrintGreetingCard,
			PaymentMethod:    enums.PaymentMethodCard,
			GrossAmount:      amt("10.00"),
			NetDistributable: amt("4.00"),
			CreatedAt:        created,
		})
	}

	rows, err := repo.Daily(context.Background(), Query{
		From: dayOne.Add(-time.Hour),
		To:   dayTwo.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.EqualValues(t, 2, rows[0].Entries)
	assert.Equal(t, "20.00", rows[0].GrossAmount.StringFixed(2))
	assert.EqualValues(t, 1, rows[1].Entries)
}

func TestDailyFiltersByTransactionType(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	day := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)

	seedEntry(t, conn, models.LedgerEntry{
		KioskID:         uuid.New(),
		TransactionType: enums.TransactionTypePrintGreetingCard,
		PaymentMethod:   enums.PaymentMethodCard,
		GrossAmount:     amt("10.00"),
		CreatedAt:       day,
	})
	seedEntry(t, conn, models.LedgerEntry{
		KioskID:         uuid.New(),
		TransactionType: enums.TransactionTypeGiftCardSale,
		PaymentMethod:   enums.PaymentMethodCard,
		GrossAmount:     amt("25.00"),
		CreatedAt:       day,
	})

	filter := enums.TransactionTypeGiftCardSale
	rows, err := repo.Daily(context.Background(), Query{
		From:            day.Add(-time.Hour),
		To:              day.Add(time.Hour),
		TransactionType: &filter,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "25.00", rows[0].GrossAmount.StringFixed(2))
}

func TestServiceRejectsInvalidWindows(t *testing.T) {
	svc, err := NewService(NewRepository(newTestDB(t)))
	require.NoError(t, err)

	cases := []struct {
		name string
		q    Query
	}{
		{"missing window", Query{}},
		{"inverted window", Query{
			From: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		}},
		{"oversized window", Query{
			From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ByKiosk(context.Background(), tc.q)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}
