package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gaslinkhq/gaslink-backend/api/responses"
	pkgauth "github.com/gaslinkhq/gaslink-backend/pkg/auth"
	"github.com/gaslinkhq/gaslink-backend/pkg/config"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// actor identity carried by the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			subjectID, err := claims.SubjectID()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid subject"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxActorID, subjectID.String())
			ctx = context.WithValue(ctx, ctxActorRole, string(claims.Role))
			ctx = context.WithValue(ctx, ctxActorName, claims.Name)
			if claims.AgencyID != nil {
				ctx = context.WithValue(ctx, ctxAgencyID, claims.AgencyID.String())
			}

			if logg != nil {
				fields := map[string]any{
					"actor_id":   subjectID.String(),
					"actor_role": string(claims.Role),
				}
				if claims.AgencyID != nil {
					fields["agency_id"] = claims.AgencyID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects requests whose authenticated role is not listed.
func RequireRoles(logg *logger.Logger, roles ...enums.ActorRole) func(http.Handler) http.Handler {
	allowed := make(map[enums.ActorRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if _, ok := allowed[actor.Role]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
