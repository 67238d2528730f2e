package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pulanodus/tableserve-backend/api/responses"
	"github.com/pulanodus/tableserve-backend/api/validators"
	"github.com/pulanodus/tableserve-backend/internal/menu"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
)

type menuCreateRequest struct {
	Name        string   `json:"name" validate:"required,max=128"`
	Description string   `json:"description" validate:"max=512"`
	Category    string   `json:"category" validate:"required,max=64"`
	Price       string   `json:"price" validate:"required"`
	Available   *bool    `json:"available"`
	Options     []string `json:"options" validate:"max=20,dive,max=64"`
}

type menuUpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=128"`
	Description *string  `json:"description" validate:"omitempty,max=512"`
	Category    *string  `json:"category" validate:"omitempty,max=64"`
	Price       *string  `json:"price"`
	Available   *bool    `json:"available"`
	Options     []string `json:"options" validate:"max=20,dive,max=64"`
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return price, nil
}

// MenuList returns catalog entries. Customers see available items only;
// staff pass ?all=true for the full catalog.
func MenuList(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := menu.ListFilters{AvailableOnly: true}
		if strings.EqualFold(r.URL.Query().Get("all"), "true") {
			filters.AvailableOnly = false
		}
		if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
			filters.Category = &category
		}

		items, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// MenuCreate adds a catalog entry.
func MenuCreate(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload menuCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parsePrice(payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), menu.CreateMenuItemInput{
			Name:        validators.SanitizeString(payload.Name, 128),
			Description: validators.SanitizeString(payload.Description, 512),
			Category:    validators.SanitizeString(payload.Category, 64),
			Price:       price,
			Available:   payload.Available,
			Options:     payload.Options,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// MenuUpdate applies a partial update; absent fields stay untouched.
func MenuUpdate(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := parseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload menuUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := menu.UpdateMenuItemInput{
			Name:        payload.Name,
			Description: payload.Description,
			Category:    payload.Category,
			Available:   payload.Available,
			Options:     payload.Options,
		}
		if payload.Price != nil {
			price, perr := parsePrice(*payload.Price)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			input.Price = &price
		}

		updated, err := svc.Update(r.Context(), itemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
