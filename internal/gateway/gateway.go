// Package gateway maps the verified identity context onto the customer
// headers the backend trusts. Stripping caller-supplied copies of these
// headers is a perimeter responsibility: this middleware is that perimeter,
// so any inbound value is replaced unconditionally.
package gateway

import (
	"net/http"

	"github.com/tenantgate/tenantgate/internal/audit"
	"github.com/tenantgate/tenantgate/internal/authorizer"
)

// Headers set for the backend from the identity context. Their values are
// copied verbatim from the verified token claims.
const (
	HeaderCustomerID   = "X-Customer-ID"
	HeaderCustomerName = "X-Customer-Name"
)

// Middleware injects the customer identity headers on the request before it
// reaches the backend handler. It must run after the authorization
// middleware; a request without an identity context is rejected rather than
// forwarded anonymously.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			identity := authorizer.IdentityFromContext(ctx)
			if identity == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			// Set replaces any caller-supplied value: the backend must only
			// ever see identities asserted by a verified token.
			r.Header.Set(HeaderCustomerID, identity.CustomerID)
			r.Header.Set(HeaderCustomerName, identity.CustomerName)

			entry := audit.Log(ctx)
			entry.Authorized = true
			entry.CustomerID = identity.CustomerID

			next.ServeHTTP(w, r)
		})
	}
}
