package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/tableside/models"
	"github.com/ray-remotestate/tableside/utils"
)

type ContextKey string

const (
	staffContextKey ContextKey = "staff"
)

// Authenticator guards staff routes with bearer tokens. With no secret
// configured every request is treated as an authenticated manager.
type Authenticator struct {
	secret []byte
	log    logrus.FieldLogger
}

func NewAuthenticator(secret string, log logrus.FieldLogger) *Authenticator {
	return &Authenticator{secret: []byte(secret), log: log}
}

func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

func (a *Authenticator) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			claims := &models.StaffClaims{Role: models.RoleManager}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), staffContextKey, claims)))
			return
		}

		tokenStr, err := extractBearerToken(r)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "unauthorized: missing token")
			return
		}

		claims, err := utils.ParseAccessToken(a.secret, tokenStr)
		if err != nil {
			a.log.WithError(err).WithField("path", r.URL.Path).Debug("rejected staff token")
			utils.RespondError(w, http.StatusUnauthorized, "unauthorized: invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), staffContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetAuthenticatedStaff(r *http.Request) (*models.StaffClaims, error) {
	claims, ok := r.Context().Value(staffContextKey).(*models.StaffClaims)
	if !ok {
		return nil, errors.New("no staff in context")
	}
	return claims, nil
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}

func RoleBasedMiddleware(allowedRoles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool)
	for _, role := range allowedRoles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := GetAuthenticatedStaff(r)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !allowed[claims.Role] {
				utils.RespondError(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
