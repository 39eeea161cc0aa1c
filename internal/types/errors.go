package types

import (
	"context"
	"errors"
	"net/http"
)

// Generation error taxonomy. Components wrap these so callers can branch with errors.Is.
var (
	ErrIncompleteInput         = errors.New("incomplete trip input")
	ErrInvalidDuration         = errors.New("invalid trip duration")
	ErrAuthRequired            = errors.New("sign-in required")
	ErrQuotaExhausted          = errors.New("all keys hit their limits, please wait ~60s")
	ErrAllCredentialsExhausted = errors.New("all AI fallbacks failed")
	ErrUnparsableOutput        = errors.New("unable to parse AI response as JSON")
	ErrPersistenceFailure      = errors.New("failed to save trip")
	ErrEnrichmentFailure       = errors.New("enrichment lookup failed")
	ErrNotFound                = errors.New("not found")
)

// ErrorKind is the stable name of an error class exposed to API clients.
type ErrorKind string

const (
	KindNone                    ErrorKind = ""
	KindIncompleteInput         ErrorKind = "IncompleteInput"
	KindInvalidDuration         ErrorKind = "InvalidDuration"
	KindAuthRequired            ErrorKind = "AuthRequired"
	KindQuotaExhausted          ErrorKind = "QuotaExhausted"
	KindAllCredentialsExhausted ErrorKind = "AllCredentialsExhausted"
	KindUnparsableOutput        ErrorKind = "UnparsableOutput"
	KindPersistenceFailure      ErrorKind = "PersistenceFailure"
	KindEnrichmentFailure       ErrorKind = "EnrichmentFailure"
	KindNotFound                ErrorKind = "NotFound"
	KindCancelled               ErrorKind = "Cancelled"
	KindInternal                ErrorKind = "Internal"
)

// ordered: QuotaExhausted must win over AllCredentialsExhausted.
var kindTable = []struct {
	err    error
	kind   ErrorKind
	status int
}{
	{ErrIncompleteInput, KindIncompleteInput, http.StatusBadRequest},
	{ErrInvalidDuration, KindInvalidDuration, http.StatusBadRequest},
	{ErrAuthRequired, KindAuthRequired, http.StatusUnauthorized},
	{ErrQuotaExhausted, KindQuotaExhausted, http.StatusTooManyRequests},
	{ErrAllCredentialsExhausted, KindAllCredentialsExhausted, http.StatusBadGateway},
	{ErrUnparsableOutput, KindUnparsableOutput, http.StatusBadGateway},
	{ErrPersistenceFailure, KindPersistenceFailure, http.StatusInternalServerError},
	{ErrEnrichmentFailure, KindEnrichmentFailure, http.StatusOK},
	{ErrNotFound, KindNotFound, http.StatusNotFound},
}

// Kind classifies err into the taxonomy.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kindTable {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if isCancellation(err) {
		return KindCancelled
	}
	return KindInternal
}

// HTTPStatus maps err onto the status code handlers respond with.
func HTTPStatus(err error) int {
	for _, k := range kindTable {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	if isCancellation(err) {
		return 499
	}
	return http.StatusInternalServerError
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
