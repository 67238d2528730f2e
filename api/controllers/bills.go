package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pulanodus/tableserve-backend/api/responses"
	"github.com/pulanodus/tableserve-backend/internal/billing"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
)

// BillSession computes the full table bill from confirmed lines.
func BillSession(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.ComputeSessionBill(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bill)
	}
}

// BillDiner computes one diner's owned lines plus split shares.
func BillDiner(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dinerName := strings.TrimSpace(chi.URLParam(r, "dinerName"))
		if dinerName == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "diner name required"))
			return
		}

		bill, err := svc.ComputeDinerBill(r.Context(), sessionID, dinerName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bill)
	}
}
