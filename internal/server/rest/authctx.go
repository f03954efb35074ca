package rest

import (
	"context"
	"net/http"

	"github.com/and161185/deck-keeper/internal/model"
)

type ctxKey string

const userKey ctxKey = "dk.user"

// WithUser stores the authenticated account in the request context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the authenticated account from the context.
func UserFromCtx(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// withUser is the authorization guard every protected route goes through:
// verify the bearer token, resolve the username to an account, and hand the
// handler a context carrying the validated user.
func (s *Server) withUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.auth.VerifyToken(bearerToken(r))
		if err != nil {
			s.writeDomainErr(w, err, "")
			return
		}
		u, err := s.auth.ResolveUser(r.Context(), username)
		if err != nil {
			s.writeDomainErr(w, err, "")
			return
		}
		next(w, r.WithContext(WithUser(r.Context(), u)))
	}
}
