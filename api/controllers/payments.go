package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/api/responses"
	"github.com/pulanodus/tableserve-backend/api/validators"
	"github.com/pulanodus/tableserve-backend/internal/payments"
	"github.com/pulanodus/tableserve-backend/pkg/enums"
	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
	"github.com/pulanodus/tableserve-backend/pkg/logger"
)

type paymentRecordRequest struct {
	DinerName   string `json:"diner_name" validate:"max=64"`
	Method      string `json:"method" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	SourceID    string `json:"source_id" validate:"max=128"`
}

func (r paymentRecordRequest) toInput(sessionID uuid.UUID) (payments.RecordPaymentInput, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(r.Method))
	if err != nil {
		return payments.RecordPaymentInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	return payments.RecordPaymentInput{
		SessionID:   sessionID,
		DinerName:   validators.SanitizeString(r.DinerName, 64),
		Method:      method,
		AmountCents: r.AmountCents,
		SourceID:    strings.TrimSpace(r.SourceID),
	}, nil
}

// PaymentRecord accepts a cash or card payment against a session bill.
func PaymentRecord(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentRecordRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.RecordPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// PaymentList returns all payments recorded for a session.
func PaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := parseUUIDParam(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListPayments(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
