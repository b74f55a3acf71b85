package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/centrumkenaz/backend/internal/auth"
)

type contextKey string

const ctxOperatorKey contextKey = "operator"

// OperatorIdentity is what downstream handlers get from the auth middleware.
type OperatorIdentity struct {
	ID   uuid.UUID
	Role string
}

// TokenValidator is the subset of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
}

// OperatorAuth authenticates requests by validating the Bearer JWT and sets
// the operator identity into request context. When adminOnly is set, staff
// tokens are rejected with 403; the workbench mutates money, so it is gated to
// admins.
func OperatorAuth(validator TokenValidator, adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}

			id, role, err := validator.ValidateToken(r.Context(), raw)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}
			if adminOnly && role != auth.RoleAdmin {
				http.Error(w, `{"error":"admin role required"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ctxOperatorKey, &OperatorIdentity{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorFromCtx returns the authenticated operator or nil.
func OperatorFromCtx(ctx context.Context) *OperatorIdentity {
	op, _ := ctx.Value(ctxOperatorKey).(*OperatorIdentity)
	return op
}

// WithOperator returns a context carrying the given operator. Used by tests to
// simulate an authenticated request.
func WithOperator(ctx context.Context, op *OperatorIdentity) context.Context {
	return context.WithValue(ctx, ctxOperatorKey, op)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
