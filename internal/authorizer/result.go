package authorizer

// result is the internal outcome of a verification attempt. The failure kind
// distinguishes the pipeline stages for logging and testing; it is collapsed
// to the boolean verdict before anything leaves the package.
type result struct {
	identity IdentityContext
	failure  failureKind
}

type failureKind int

const (
	failureNone failureKind = iota
	failureMissingCredential
	failureMalformedToken
	failureInvalidPayload
	failureSignatureMismatch
	failureNoIdentity
	failureInternal
)

func (k failureKind) String() string {
	switch k {
	case failureNone:
		return "none"
	case failureMissingCredential:
		return "missing_credential"
	case failureMalformedToken:
		return "malformed_token"
	case failureInvalidPayload:
		return "invalid_payload"
	case failureSignatureMismatch:
		return "signature_mismatch"
	case failureNoIdentity:
		return "no_identity_claim"
	case failureInternal:
		return "internal_fault"
	default:
		return "unknown"
	}
}
