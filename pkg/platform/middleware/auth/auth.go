// Package auth validates bearer tokens issued by the external identity
// provider. The data engine never issues tokens; it only checks signatures and
// the staff role claim on manual-override endpoints.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "trapper/pkg/domain-errors"
	"trapper/pkg/platform/httputil"
	"trapper/pkg/requestcontext"
)

// Claims are the claims expected from the external issuer.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Validator verifies HMAC-signed staff tokens.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token string, returning its claims.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return v.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return claims, nil
}

// RequireStaff guards manual-override endpoints. Tokens must verify and carry
// a staff or coordinator role; everything else is rejected before the handler
// runs.
func RequireStaff(validator *Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(strings.TrimPrefix(authHeader, bearerPrefix))
			if err != nil {
				logger.WarnContext(r.Context(), "rejected override token",
					"path", r.URL.Path,
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			if claims.Role != "staff" && claims.Role != "coordinator" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "staff role required"))
				return
			}

			ctx := requestcontext.WithActor(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
