package llm

import (
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// ErrMissingCredential is returned when no model-access credential is
// configured. The chat endpoint surfaces it before any iteration runs.
var ErrMissingCredential = errors.New("model credential not configured")

// FailureKind buckets a fatal model-call error into the small set of
// user-facing messages the chat endpoint knows how to phrase.
type FailureKind int

const (
	// FailureOther is any model-call error without a known code.
	FailureOther FailureKind = iota
	// FailureQuota means the account is out of credit.
	FailureQuota
	// FailureAuth means the credential was rejected.
	FailureAuth
)

// Classify inspects a model-call error and returns its failure kind.
// Unrecognized errors (transport failures included) are FailureOther.
func Classify(err error) FailureKind {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return FailureOther
	}

	if code, ok := apiErr.Code.(string); ok {
		switch code {
		case "insufficient_quota":
			return FailureQuota
		case "invalid_api_key":
			return FailureAuth
		}
	}
	if apiErr.Type == "insufficient_quota" {
		return FailureQuota
	}
	if apiErr.HTTPStatusCode == http.StatusUnauthorized {
		return FailureAuth
	}

	return FailureOther
}
