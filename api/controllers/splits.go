package controllers

import (
	"net/http"

	"github.com/pulanodus/tableserve-backend/api/responses"
	"github.com/pulanodus/tableserve-backend/api/validators"
	"github.com/pulanodus/tableserve-backend/internal/splits"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
)

type splitCreateRequest struct {
	Participants []string `json:"participants" validate:"required,min=1,dive,required,max=64"`
}

type splitParticipantsRequest struct {
	Participants []string `json:"participants" validate:"required,min=1,dive,required,max=64"`
}

// SplitCreate marks a line shared and records who splits it.
func SplitCreate(svc splits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := parseUUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload splitCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		split, err := svc.CreateSplit(r.Context(), lineID, payload.Participants)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, split)
	}
}

// SplitUpdateParticipants replaces the participant set and recomputes shares.
func SplitUpdateParticipants(svc splits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := parseUUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload splitParticipantsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		split, err := svc.UpdateParticipants(r.Context(), lineID, payload.Participants)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, split)
	}
}

// SplitShare returns one diner's computed share of a shared line.
func SplitShare(svc splits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := parseUUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		diner, err := validators.RequireQueryString(r, "diner")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		share, err := svc.GetShareFor(r.Context(), lineID, diner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, share)
	}
}
