package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/showrunner-backend/api/responses"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
)

const defaultUserHeader = "X-User-Id"

// User reads the reseller id set by the upstream gateway. Requests without a
// valid uuid are rejected before reaching a handler.
func User(header string, logg *logger.Logger) func(http.Handler) http.Handler {
	if header == "" {
		header = defaultUserHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "%s header required", header))
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id").
					WithDetails(map[string]any{"header": header}))
				return
			}

			ctx := WithUserID(r.Context(), id.String())
			if logg != nil {
				ctx = logg.WithUserID(ctx, id.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
