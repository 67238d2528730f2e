package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/api/responses"
	"github.com/pulanodus/tableserve-backend/api/validators"
	"github.com/pulanodus/tableserve-backend/internal/cart"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
)

type cartAddItemRequest struct {
	DinerName      string   `json:"diner_name" validate:"required,max=64"`
	MenuItemID     string   `json:"menu_item_id" validate:"required"`
	Notes          string   `json:"notes" validate:"max=256"`
	IsShared       bool     `json:"is_shared"`
	IsTakeaway     bool     `json:"is_takeaway"`
	Customizations []string `json:"customizations" validate:"max=20,dive,max=64"`
}

type cartSetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type cartConfirmRequest struct {
	ConfirmedBy string `json:"confirmed_by" validate:"required,max=64"`
}

func (r cartAddItemRequest) toInput(sessionID uuid.UUID) (cart.AddItemInput, error) {
	menuItemID, err := uuid.Parse(strings.TrimSpace(r.MenuItemID))
	if err != nil {
		return cart.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid menu_item_id")
	}
	return cart.AddItemInput{
		SessionID:      sessionID,
		DinerName:      validators.SanitizeString(r.DinerName, 64),
		MenuItemID:     menuItemID,
		Notes:          validators.SanitizeString(r.Notes, 256),
		IsShared:       r.IsShared,
		IsTakeaway:     r.IsTakeaway,
		Customizations: r.Customizations,
	}, nil
}

// CartAddItem adds a menu item to the session cart.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

// CartSetQuantity replaces a line's quantity. Zero removes the line.
func CartSetQuantity(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := parseUUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartSetQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.SetQuantity(r.Context(), lineID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if line == nil {
			responses.WriteSuccess(w, map[string]any{"removed": true})
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// CartRemoveLine deletes one line from the cart.
func CartRemoveLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := parseUUIDParam(r, "lineID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"removed": true})
	}
}

// CartClear drops every pending line of the session.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := svc.ClearCart(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"removed_lines": removed})
	}
}

// CartConfirm turns pending lines into confirmed orders.
func CartConfirm(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartConfirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ConfirmCart(r.Context(), sessionID, validators.SanitizeString(payload.ConfirmedBy, 64))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CartGet lists the session's cart lines.
func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.GetCart(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}
