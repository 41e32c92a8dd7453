package authorizer

import (
	"encoding/json"
	"strconv"
)

// IdentityClaims is the ordered list of claim names tried when resolving the
// customer identity. The first present, non-empty value wins; changing the
// order changes which tenant a multi-claim token resolves to.
var IdentityClaims = []string{"customer_id", "tenant_id", "sub"}

// NameClaims is the ordered list of claim names tried when resolving the
// customer display name. When none match, the display name falls back to the
// resolved identity value.
var NameClaims = []string{"customer_name", "name"}

// firstClaim returns the value of the first candidate claim that is present
// and non-empty.
func firstClaim(claims map[string]any, candidates []string) (string, bool) {
	for _, name := range candidates {
		value, ok := claims[name]
		if !ok {
			continue
		}
		if s, ok := claimString(value); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// claimString renders a claim value as a string. Claims are string or
// primitive valued; structured values never qualify as an identity.
func claimString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
