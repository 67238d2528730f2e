package square

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	pkgerrors "github.com/pulanodus/tableserve-backend/pkg/errors"
)

func TestEnsureIdempotencyKey(t *testing.T) {
	c := &Client{}

	if got := c.ensureIdempotencyKey("pay", "diner-supplied"); got != "diner-supplied" {
		t.Fatalf("provided key should pass through, got %q", got)
	}

	generated := c.ensureIdempotencyKey("pay", "")
	if !strings.HasPrefix(generated, "pay-") {
		t.Fatalf("generated key %q should start with the operation prefix", generated)
	}
	if generated == c.ensureIdempotencyKey("pay", "") {
		t.Fatal("generated keys must be unique per call")
	}
}

func TestRedact(t *testing.T) {
	c := &Client{}

	if got := c.redact("payment_token", "cnon:card-nonce"); got != "[REDACTED]" {
		t.Fatalf("token value leaked: %v", got)
	}
	if got := c.redact("status", "COMPLETED"); got != "COMPLETED" {
		t.Fatalf("safe key was redacted: %v", got)
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	cases := []struct {
		status int
		want   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeUnauthorized},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tc := range cases {
		if got := domainCodeForStatus(tc.status); got != tc.want {
			t.Errorf("status %d: want %s, got %s", tc.status, tc.want, got)
		}
	}
}

func TestMapSquareError(t *testing.T) {
	c := &Client{}
	cases := []struct {
		name    string
		status  int
		payload string
		want    pkgerrors.Code
	}{
		{
			name:    "authentication error",
			status:  http.StatusUnauthorized,
			payload: `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`,
			want:    pkgerrors.CodeUnauthorized,
		},
		{
			name:    "idempotency key reused",
			status:  http.StatusConflict,
			payload: `{"errors":[{"category":"API_ERROR","code":"IDEMPOTENCY_KEY_REUSED"}]}`,
			want:    pkgerrors.CodeIdempotency,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := sqcore.NewAPIError(tc.status, errors.New(tc.payload))
			mapped := c.mapSquareError(apiErr, "record payment")
			typed := pkgerrors.As(mapped)
			if typed == nil {
				t.Fatalf("mapped error %v is not a domain error", mapped)
			}
			if typed.Code() != tc.want {
				t.Fatalf("want code %s, got %s", tc.want, typed.Code())
			}
		})
	}
}

func TestExtractSquareErrors(t *testing.T) {
	c := &Client{}
	apiErr := sqcore.NewAPIError(
		http.StatusBadRequest,
		errors.New(`{"errors":[{"category":"API_ERROR","code":"BAD_REQUEST","detail":"amount must be positive"}]}`),
	)

	got := c.extractSquareErrors(apiErr)
	if len(got) != 1 {
		t.Fatalf("expected 1 parsed error, got %d", len(got))
	}
	if got[0].GetCode() != sq.ErrorCodeBadRequest {
		t.Fatalf("unexpected error code %s", got[0].GetCode())
	}
}
