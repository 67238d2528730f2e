package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TableTokenPayload captures the data available when minting a table QR token.
type TableTokenPayload struct {
	TableID     uuid.UUID
	TableNumber int
	JTI         string
}

// TableTokenClaims is the typed JWT embedded in a table's QR code. Tokens
// carry no expiry; deactivating the table row revokes them.
type TableTokenClaims struct {
	TableID     uuid.UUID `json:"table_id"`
	TableNumber int       `json:"table_number"`
	jwt.RegisteredClaims
}
