package authorizer

import (
	"context"
	"errors"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/rs/zerolog"

	"github.com/tenantgate/tenantgate/internal/config"
)

// errDenied is the single error every denial maps to at the middleware
// boundary. The stage that failed is logged inside the authorizer only.
var errDenied = errors.New("authorization denied")

// Middleware returns HTTP middleware that verifies the bearer token on each
// request. On success the resolved identity is set on the request context and
// can be retrieved with IdentityFromContext; on failure the request is
// rejected by the configured error handler.
func Middleware(cfg config.AuthorizationConfig, options ...jwtmiddleware.Option) (func(http.Handler) http.Handler, error) {
	if cfg.SharedSecret == "" {
		return nil, errors.New("authorization shared secret must be configured")
	}

	authorizer := New([]byte(cfg.SharedSecret))

	// The authorizer owns scheme prefix handling and fail-closed semantics,
	// so the middleware is handed the raw header value untouched. Options
	// supplied by the caller may still override the error handler.
	options = append([]jwtmiddleware.Option{
		jwtmiddleware.WithTokenExtractor(rawHeaderTokenExtractor),
	}, options...)

	middleware := jwtmiddleware.New(authorizer.ValidateToken, options...)

	return middleware.CheckJWT, nil
}

// ValidateToken adapts the authorizer to the middleware's validation
// contract. The returned identity is stored on the request context by the
// middleware under its own key.
func (a *Authorizer) ValidateToken(ctx context.Context, credential string) (any, error) {
	verdict := a.Authorize(ctx, credential)
	if !verdict.Authorized {
		return nil, errDenied
	}

	return verdict.Context, nil
}

// rawHeaderTokenExtractor returns the credential header verbatim. An empty
// value is reported as a missing token by the middleware, which keeps absent
// credentials on the same denial path as invalid ones.
func rawHeaderTokenExtractor(r *http.Request) (string, error) {
	return r.Header.Get("Authorization"), nil
}

// IdentityFromContext returns the identity set by the middleware, or nil when
// the request was not authorized. Handlers behind the middleware should treat
// nil as a programming error.
func IdentityFromContext(ctx context.Context) *IdentityContext {
	identity, _ := ctx.Value(jwtmiddleware.ContextKey{}).(*IdentityContext)
	return identity
}

// ContextWithIdentity sets the identity on the context the same way the
// middleware does. Intended for tests and for composing handlers out of band.
func ContextWithIdentity(ctx context.Context, identity *IdentityContext) context.Context {
	return context.WithValue(ctx, jwtmiddleware.ContextKey{}, identity)
}

// LogErrorHandler logs the denial and responds with a uniform 401. The
// response body is identical for every failure kind: distinguishing a bad
// signature from a bad format would give an attacker an oracle.
func LogErrorHandler() jwtmiddleware.ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		zerolog.Ctx(r.Context()).Info().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request authorization failed")

		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
}
