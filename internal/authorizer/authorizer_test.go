package authorizer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v3"
	josejwt "github.com/go-jose/go-jose/v3/jwt"
	gojwt "github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cr3t"

func TestAuthorize_ValidToken(t *testing.T) {
	token := signToken(t, testSecret, map[string]any{
		"customer_id":   "customer1",
		"customer_name": "Acme Corp",
	})

	a := New([]byte(testSecret))
	verdict := a.Authorize(context.Background(), "Bearer "+token)

	require.True(t, verdict.Authorized)
	require.NotNil(t, verdict.Context)
	assert.Equal(t, "customer1", verdict.Context.CustomerID)
	assert.Equal(t, "Acme Corp", verdict.Context.CustomerName)
}

func TestAuthorize_WrongSecret(t *testing.T) {
	token := signToken(t, "a-different-secret", map[string]any{
		"customer_id":   "customer1",
		"customer_name": "Acme Corp",
	})

	a := New([]byte(testSecret))
	verdict := a.Authorize(context.Background(), "Bearer "+token)

	assert.False(t, verdict.Authorized)
	assert.Nil(t, verdict.Context)
}

func TestAuthorize_SchemePrefixes(t *testing.T) {
	token := signToken(t, testSecret, map[string]any{"customer_id": "customer1"})

	testCases := []struct {
		name       string
		credential string
		authorized bool
	}{
		{"uppercase scheme", "Bearer " + token, true},
		{"lowercase scheme", "bearer " + token, true},
		{"bare token", token, true},
		{"shouting scheme is not recognized", "BEARER " + token, false},
		{"scheme without token", "Bearer ", false},
		{"empty credential", "", false},
	}

	a := New([]byte(testSecret))

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := a.Authorize(context.Background(), tc.credential)
			assert.Equal(t, tc.authorized, verdict.Authorized)
		})
	}
}

func TestAuthorize_SegmentCount(t *testing.T) {
	token := signToken(t, testSecret, map[string]any{"customer_id": "customer1"})
	segments := strings.Split(token, ".")
	require.Len(t, segments, 3)

	a := New([]byte(testSecret))

	twoSegments := segments[0] + "." + segments[1]
	assert.False(t, a.Authorize(context.Background(), twoSegments).Authorized)

	fourSegments := token + "." + segments[2]
	assert.False(t, a.Authorize(context.Background(), fourSegments).Authorized)
}

func TestAuthorize_TamperedSignature(t *testing.T) {
	token := signToken(t, testSecret, map[string]any{"customer_id": "customer1"})
	segments := strings.Split(token, ".")

	a := New([]byte(testSecret))

	// altering any single byte of the signature must deny
	signature := segments[2]
	for i := 0; i < len(signature); i++ {
		altered := []byte(signature)
		if altered[i] == 'A' {
			altered[i] = 'B'
		} else {
			altered[i] = 'A'
		}

		tampered := segments[0] + "." + segments[1] + "." + string(altered)
		verdict := a.Authorize(context.Background(), "Bearer "+tampered)

		assert.False(t, verdict.Authorized, "altered signature byte %d must deny", i)
	}
}

func TestAuthorize_TamperedPayload(t *testing.T) {
	token := signToken(t, testSecret, map[string]any{"customer_id": "customer1"})
	segments := strings.Split(token, ".")

	// substitute a different, validly encoded payload under the old signature
	substitute := base64.RawURLEncoding.EncodeToString([]byte(`{"customer_id":"customer2"}`))
	tampered := segments[0] + "." + substitute + "." + segments[2]

	a := New([]byte(testSecret))
	assert.False(t, a.Authorize(context.Background(), "Bearer "+tampered).Authorized)
}

func TestAuthorize_NoIdentityClaim(t *testing.T) {
	// signature-valid token whose payload has none of the recognized claims
	token := signToken(t, testSecret, map[string]any{
		"role":  "admin",
		"scope": "read",
	})

	a := New([]byte(testSecret))
	verdict := a.Authorize(context.Background(), "Bearer "+token)

	assert.False(t, verdict.Authorized)
	assert.Nil(t, verdict.Context)
}

func TestAuthorize_ClaimPriority(t *testing.T) {
	testCases := []struct {
		name        string
		claims      map[string]any
		wantID      string
		wantDisplay string
	}{
		{
			name:        "customer_id wins over tenant_id",
			claims:      map[string]any{"customer_id": "A", "tenant_id": "B"},
			wantID:      "A",
			wantDisplay: "A",
		},
		{
			name:        "tenant_id wins over sub",
			claims:      map[string]any{"tenant_id": "B", "sub": "C"},
			wantID:      "B",
			wantDisplay: "B",
		},
		{
			name:        "sub as last resort",
			claims:      map[string]any{"sub": "C"},
			wantID:      "C",
			wantDisplay: "C",
		},
		{
			name:        "empty customer_id falls through to tenant_id",
			claims:      map[string]any{"customer_id": "", "tenant_id": "B"},
			wantID:      "B",
			wantDisplay: "B",
		},
		{
			name:        "customer_name wins over name",
			claims:      map[string]any{"customer_id": "A", "customer_name": "Acme Corp", "name": "other"},
			wantID:      "A",
			wantDisplay: "Acme Corp",
		},
		{
			name:        "name as display fallback claim",
			claims:      map[string]any{"customer_id": "A", "name": "Acme Corp"},
			wantID:      "A",
			wantDisplay: "Acme Corp",
		},
		{
			name:        "display name falls back to identity",
			claims:      map[string]any{"customer_id": "A"},
			wantID:      "A",
			wantDisplay: "A",
		},
		{
			name:        "numeric subject is rendered as a string",
			claims:      map[string]any{"sub": 12345},
			wantID:      "12345",
			wantDisplay: "12345",
		},
	}

	a := New([]byte(testSecret))

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token := signToken(t, testSecret, tc.claims)
			verdict := a.Authorize(context.Background(), "Bearer "+token)

			require.True(t, verdict.Authorized)
			assert.Equal(t, tc.wantID, verdict.Context.CustomerID)
			assert.Equal(t, tc.wantDisplay, verdict.Context.CustomerName)
		})
	}
}

func TestAuthorize_IsIdempotent(t *testing.T) {
	token := signToken(t, testSecret, map[string]any{"customer_id": "customer1"})

	a := New([]byte(testSecret))

	first := a.Authorize(context.Background(), "Bearer "+token)
	second := a.Authorize(context.Background(), "Bearer "+token)

	assert.Equal(t, first, second)
}

func TestAuthorize_GolangJWTInterop(t *testing.T) {
	// the token generator CLI signs with golang-jwt; its output must verify
	now := time.Now()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"customer_id":   "customer1",
		"customer_name": "Acme Corp",
		"sub":           "customer1",
		"iat":           now.Unix(),
		"exp":           now.Add(time.Hour).Unix(),
		"iss":           "tenantgate",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	a := New([]byte(testSecret))
	verdict := a.Authorize(context.Background(), "Bearer "+token)

	require.True(t, verdict.Authorized)
	assert.Equal(t, "customer1", verdict.Context.CustomerID)
	assert.Equal(t, "Acme Corp", verdict.Context.CustomerName)
}

func TestEvaluate_FailureStages(t *testing.T) {
	valid := signToken(t, testSecret, map[string]any{"customer_id": "customer1"})
	segments := strings.Split(valid, ".")

	noIdentity := signToken(t, testSecret, map[string]any{"role": "admin"})
	wrongKey := signToken(t, "a-different-secret", map[string]any{"customer_id": "customer1"})

	garbagePayload := segments[0] + ".!!!not-base64!!!." + segments[2]
	nonObjectPayload := segments[0] + "." +
		base64.RawURLEncoding.EncodeToString([]byte(`"just a string"`)) + "." + segments[2]

	testCases := []struct {
		name       string
		credential string
		want       failureKind
	}{
		{"valid", "Bearer " + valid, failureNone},
		{"empty", "", failureMissingCredential},
		{"prefix only", "Bearer ", failureMissingCredential},
		{"not a token", "Bearer gibberish", failureMalformedToken},
		{"two segments", "Bearer a.b", failureMalformedToken},
		{"empty segment", "Bearer a..c", failureMalformedToken},
		{"payload not base64", "Bearer " + garbagePayload, failureInvalidPayload},
		{"payload not an object", "Bearer " + nonObjectPayload, failureInvalidPayload},
		{"wrong key", "Bearer " + wrongKey, failureSignatureMismatch},
		{"no identity claim", "Bearer " + noIdentity, failureNoIdentity},
	}

	a := New([]byte(testSecret))

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := a.evaluate(tc.credential)
			assert.Equal(t, tc.want, res.failure, "expected %s, got %s", tc.want, res.failure)
		})
	}
}

func TestDecodeClaims_RoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		payload map[string]any
	}{
		{"strings", map[string]any{"customer_id": "customer1", "customer_name": "Acme Corp"}},
		{"numbers", map[string]any{"sub": json.Number("42"), "iat": json.Number("1700000000")}},
		{"booleans", map[string]any{"customer_id": "c1", "active": true, "trial": false}},
		{"mixed", map[string]any{"tenant_id": "t-9", "seats": json.Number("250"), "enterprise": true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.payload)
			require.NoError(t, err)

			// the issuer encodes segments url-safe with padding stripped
			segment := base64.RawURLEncoding.EncodeToString(raw)

			decoded, err := decodeClaims(segment)
			require.NoError(t, err)
			assert.Equal(t, tc.payload, decoded)
		})
	}
}

func TestDecodeSegment_RePadding(t *testing.T) {
	// decoded lengths chosen so the stripped segments cover every length
	// remainder mod 4
	for _, input := range []string{"", "a", "ab", "abc", "abcd", "abcde"} {
		segment := base64.RawURLEncoding.EncodeToString([]byte(input))

		decoded, err := decodeSegment(segment)
		require.NoError(t, err, "segment %q", segment)
		assert.Equal(t, input, string(decoded))
	}
}

// signToken mints a compact HS256 token with go-jose, independently of the
// verification code under test.
func signToken(t *testing.T, secret string, claims map[string]any) string {
	t.Helper()

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(secret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	token, err := josejwt.Signed(signer).Claims(claims).CompactSerialize()
	require.NoError(t, err)

	return token
}
