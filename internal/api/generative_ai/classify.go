package generativeAI

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Outcome is what the failover loop does after a failed pair.
type Outcome int

const (
	// NextVariant tries the next model on the same credential.
	NextVariant Outcome = iota
	// NextCredential skips the remaining models of the current credential.
	NextCredential
	// Terminal stops the failover loop.
	Terminal
)

func (o Outcome) String() string {
	switch o {
	case NextVariant:
		return "next_variant"
	case NextCredential:
		return "next_credential"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// FailureClass is the coarse cause of a model error.
type FailureClass int

const (
	ClassUnknown FailureClass = iota
	ClassQuota
	ClassNotFound
	ClassUnavailable
	ClassInvalidCredential
	ClassBadRequest
	ClassCancelled
)

var classNames = map[FailureClass]string{
	ClassUnknown:           "unknown",
	ClassQuota:             "quota",
	ClassNotFound:          "not_found",
	ClassUnavailable:       "unavailable",
	ClassInvalidCredential: "invalid_credential",
	ClassBadRequest:        "bad_request",
	ClassCancelled:         "cancelled",
}

func (c FailureClass) String() string { return classNames[c] }

// text markers, checked in order when no status code is available
var textClasses = []struct {
	class   FailureClass
	markers []string
}{
	{ClassQuota, []string{"429", "quota", "rate limit", "resource_exhausted", "resource exhausted", "too many requests"}},
	{ClassNotFound, []string{"404", "not found", "not recognised", "not recognized", "is not supported"}},
	{ClassInvalidCredential, []string{"401", "403", "api key not valid", "invalid api key", "permission_denied", "permission denied", "unauthenticated"}},
	{ClassUnavailable, []string{"503", "500", "unavailable", "overloaded", "timeout", "deadline"}},
	{ClassBadRequest, []string{"400", "invalid_argument", "invalid argument"}},
}

// ClassifyFailure maps a backend error onto a FailureClass.
func ClassifyFailure(err error) FailureClass {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassCancelled
	}
	if code, ok := statusCode(err); ok {
		switch {
		case code == http.StatusTooManyRequests:
			return ClassQuota
		case code == http.StatusNotFound:
			return ClassNotFound
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return ClassInvalidCredential
		case code >= 500:
			return ClassUnavailable
		case code >= 400:
			return ClassBadRequest
		}
	}
	msg := strings.ToLower(err.Error())
	for _, tc := range textClasses {
		for _, m := range tc.markers {
			if strings.Contains(msg, m) {
				return tc.class
			}
		}
	}
	return ClassUnknown
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code != 0 {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// Classifier decides the Outcome for a failure.
type Classifier struct {
	// StrictClientErrors stops the loop on 400-class request errors instead
	// of trying every remaining pair with the same bad request.
	StrictClientErrors bool
}

// Classify maps err onto an Outcome.
func (c Classifier) Classify(err error) Outcome {
	switch ClassifyFailure(err) {
	case ClassCancelled:
		return Terminal
	case ClassInvalidCredential:
		return NextCredential
	case ClassBadRequest:
		if c.StrictClientErrors {
			return Terminal
		}
	}
	return NextVariant
}
