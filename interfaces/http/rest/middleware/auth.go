package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/pkg/auth"
	"github.com/engmung/portfolio-Nat/pkg/common"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

// AnonymousUser is recorded as the caller when authentication is disabled
const AnonymousUser = "anonymous"

// Authenticate validates the bearer token and stores the caller in the request
// context. With no validator the middleware either lets requests through as
// AnonymousUser (allowAnonymous) or rejects every request.
func Authenticate(validator *auth.JWTValidator, errs *apperrors.ErrorHandler, allowAnonymous bool, logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validator == nil {
				if !allowAnonymous {
					errs.Handle(w, r, apperrors.NewUnauthorizedError("authentication is not configured"))
					return
				}
				ctx := common.WithCaller(r.Context(), common.Caller{UserID: AnonymousUser, Anonymous: true})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				errs.Handle(w, r, apperrors.NewUnauthorizedError("missing authorization header"))
				return
			}

			claims, err := validator.ValidateToken(authHeader)
			if err != nil {
				logger.Debug("Rejected token",
					zap.String("path", r.URL.Path),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.Error(err),
				)
				errs.Handle(w, r, apperrors.NewUnauthorizedError(err.Error()))
				return
			}

			ctx := common.WithCaller(r.Context(), common.Caller{UserID: claims.UserID, Roles: claims.Roles})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers without role. Anonymous callers only
// exist when authentication is disabled, so they pass.
func RequireRole(role string, errs *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := common.CallerFrom(r.Context())
			if !ok {
				errs.Handle(w, r, apperrors.NewUnauthorizedError(""))
				return
			}
			if !caller.Anonymous && !caller.HasRole(role) {
				errs.Handle(w, r, apperrors.NewForbiddenError("role '"+role+"' required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserID returns the authenticated caller, or AnonymousUser
func UserID(r *http.Request) string {
	if c, ok := common.CallerFrom(r.Context()); ok && c.UserID != "" {
		return c.UserID
	}
	return AnonymousUser
}
