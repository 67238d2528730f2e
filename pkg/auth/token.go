package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pulanodus/tableserve-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintTableToken issues the signed JWT that a table's QR code encodes.
func MintTableToken(cfg config.TableTokenConfig, now time.Time, payload TableTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("table token secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("table token issuer is required")
	}
	if payload.TableID == uuid.Nil {
		return "", fmt.Errorf("table id is required")
	}
	if payload.TableNumber <= 0 {
		return "", fmt.Errorf("table number must be positive")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := TableTokenClaims{
		TableID:     payload.TableID,
		TableNumber: payload.TableNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   cfg.Issuer,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       jti,
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing table token: %w", err)
	}
	return signed, nil
}

// ParseTableToken validates the JWT string and returns typed claims.
func ParseTableToken(cfg config.TableTokenConfig, tokenString string) (*TableTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("table token secret is required")
	}

	claims := &TableTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
