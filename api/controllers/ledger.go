package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartwish/kiosk-backend/api/responses"
	"github.com/smartwish/kiosk-backend/internal/ledger"
	"github.com/smartwish/kiosk-backend/pkg/enums"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
	"github.com/smartwish/kiosk-backend/pkg/logger"
)

type ledgerEntryDetail struct {
	Entry       ledgerEntryResponse   `json:"entry"`
	Redemptions []ledgerEntryResponse `json:"redemptions,omitempty"`
}

// LedgerEntryByID returns one ledger entry; for custom gift-card purchases it
// also returns the redemption entries linked to it.
func LedgerEntryByID(repo ledger.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository unavailable"))
			return
		}

		entryID, err := parseUUID("entryId", chi.URLParam(r, "entryId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := repo.FindByID(r.Context(), entryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading ledger entry"))
			return
		}
		if entry == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "ledger entry not found"))
			return
		}

		detail := ledgerEntryDetail{Entry: toLedgerEntryResponse(entry)}
		if entry.TransactionType == enums.TransactionTypeCustomCardPurchase {
			linked, err := repo.ListByRelated(r.Context(), entry.ID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading linked redemptions"))
				return
			}
			for i := range linked {
				detail.Redemptions = append(detail.Redemptions, toLedgerEntryResponse(&linked[i]))
			}
		}

		responses.WriteSuccess(w, detail)
	}
}
