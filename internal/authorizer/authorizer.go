package authorizer

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// IdentityContext is the customer identity resolved from a verified token.
// It is handed verbatim to the gateway layer for header injection; no other
// fields are ever added by the authorizer.
type IdentityContext struct {
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName"`
}

// Verdict is the authorizer's sole output. Context is set only when
// Authorized is true. Callers receive no detail about why a request was
// denied: every failure mode collapses to the same unauthorized verdict so
// that the response cannot be used as an oracle.
type Verdict struct {
	Authorized bool
	Context    *IdentityContext
}

// Authorizer verifies HMAC-SHA256 signed bearer tokens and resolves the
// customer identity from their claims. It holds no mutable state and is safe
// for concurrent use.
type Authorizer struct {
	secret []byte
}

// New returns an Authorizer that verifies tokens against the given shared
// secret. The secret is injected here rather than read from the environment
// so the verification logic is testable with arbitrary keys.
func New(secret []byte) *Authorizer {
	return &Authorizer{secret: secret}
}

// The two accepted scheme prefixes. Matching is deliberately case-sensitive
// on these forms only: any other casing leaves the credential as-is, where it
// will fail structural decoding.
var bearerPrefixes = []string{"Bearer ", "bearer "}

// Authorize verifies the raw value of the credential header and returns a
// verdict. The credential may be empty, carry a bearer scheme prefix, or be a
// bare token. Denials are uniform: the reason is logged at debug level and
// never surfaced to the caller.
func (a *Authorizer) Authorize(ctx context.Context, credential string) Verdict {
	res := a.evaluate(credential)
	if res.failure != failureNone {
		zerolog.Ctx(ctx).Debug().
			Str("reason", res.failure.String()).
			Msg("authorization denied")

		return Verdict{}
	}

	identity := res.identity
	return Verdict{Authorized: true, Context: &identity}
}

// evaluate runs the verification pipeline, reporting the stage that failed.
// The failure kind stays internal to the package: it informs logs and tests,
// never the verdict.
func (a *Authorizer) evaluate(credential string) (res result) {
	// a fault anywhere in the pipeline must deny, not crash
	defer func() {
		if r := recover(); r != nil {
			res = result{failure: failureInternal}
		}
	}()

	token := stripBearerPrefix(credential)
	if token == "" {
		return result{failure: failureMissingCredential}
	}

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return result{failure: failureMalformedToken}
	}
	for _, segment := range segments {
		if segment == "" {
			return result{failure: failureMalformedToken}
		}
	}

	claims, err := decodeClaims(segments[1])
	if err != nil {
		return result{failure: failureInvalidPayload}
	}

	if !a.signatureValid(segments[0], segments[1], segments[2]) {
		return result{failure: failureSignatureMismatch}
	}

	customerID, ok := firstClaim(claims, IdentityClaims)
	if !ok {
		// a signature-valid token without a usable identity is still denied
		return result{failure: failureNoIdentity}
	}

	customerName, ok := firstClaim(claims, NameClaims)
	if !ok {
		customerName = customerID
	}

	return result{identity: IdentityContext{
		CustomerID:   customerID,
		CustomerName: customerName,
	}}
}

// stripBearerPrefix removes exactly one accepted scheme prefix, if present.
func stripBearerPrefix(credential string) string {
	for _, prefix := range bearerPrefixes {
		if token, ok := strings.CutPrefix(credential, prefix); ok {
			return token
		}
	}
	return credential
}

// decodeClaims decodes a base64url segment (issued without padding) into the
// claims mapping. Numbers are kept as json.Number so values round-trip
// without float formatting artifacts.
func decodeClaims(segment string) (map[string]any, error) {
	raw, err := decodeSegment(segment)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var claims map[string]any
	if err := dec.Decode(&claims); err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, errors.New("payload is not an object")
	}
	if dec.More() {
		return nil, errors.New("trailing data after payload object")
	}

	return claims, nil
}

// decodeSegment re-pads the segment to a multiple of 4 before decoding, as
// the issuer strips the padding characters.
func decodeSegment(segment string) ([]byte, error) {
	if rem := len(segment) % 4; rem != 0 {
		segment += strings.Repeat("=", 4-rem)
	}
	return base64.URLEncoding.DecodeString(segment)
}

// signatureValid recomputes the token signature and compares it to the
// supplied one. The MAC is taken over the two still-encoded segments joined
// by the delimiter, exactly as signed by the issuer.
//
// hmac.Equal is constant-time; a short-circuiting comparison here would leak
// how much of the signature matched. Only this comparison needs timing
// protection, as it is the only one dependent on the secret.
func (a *Authorizer) signatureValid(header, payload, signature string) bool {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(header))
	mac.Write([]byte{'.'})
	mac.Write([]byte(payload))

	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}
