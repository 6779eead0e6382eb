package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/secmon-lab/ticketsync/pkg/utils/user"
)

const (
	userIDRegular = "user"
	userIDAdmin   = "admin"
)

func panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				panicErr := goerr.New("panic recovered",
					goerr.V("panic", fmt.Sprintf("%v", err)),
					goerr.V("debug_stack", string(debug.Stack())),
					goerr.V("method", r.Method),
					goerr.V("path", r.URL.Path),
					goerr.T(errs.TagInternal),
				)

				handleError(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func tokenEqual(a, b string) bool {
	return b != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// authMiddleware accepts the user token and the admin token. The admin token
// also authenticates regular routes.
func authMiddleware(userToken, adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := bearerToken(r)

			switch {
			case token == "":
				handleError(w, r, goerr.New("missing bearer token", goerr.T(errs.TagUnauthorized)))
				return

			case tokenEqual(token, adminToken):
				ctx = user.WithAdmin(user.WithUserID(ctx, userIDAdmin))

			case tokenEqual(token, userToken):
				ctx = user.WithUserID(ctx, userIDRegular)

			default:
				handleError(w, r, goerr.New("invalid bearer token", goerr.T(errs.TagUnauthorized)))
				return
			}

			ctx = logging.WithAttrs(ctx, "user_id", user.FromContext(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAdmin rejects requests not authenticated with the admin token.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !user.IsAdmin(r.Context()) {
			handleError(w, r, goerr.New("admin access required",
				goerr.T(errs.TagForbidden),
				goerr.V("user_id", user.FromContext(r.Context()))))
			return
		}
		next.ServeHTTP(w, r)
	})
}
