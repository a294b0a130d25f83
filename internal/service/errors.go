package service

import (
	"errors"
	"strings"

	"github.com/sebikillmachin/SUI/internal/domain"
)

// walletParseQuirk is the wallet's message when it cannot parse the node's
// execution response, although the transaction may well have landed.
const walletParseQuirk = "Could not parse effects"

// RetryHint is shown for the wallet parse quirk.
const RetryHint = "Wallet could not parse the response. Please retry; check network/wallet."

// SubmissionError is a classified submission failure. Error returns the
// user-facing text; Unwrap exposes the original cause.
type SubmissionError struct {
	Hint  string
	Retry bool
	Err   error
}

func (e *SubmissionError) Error() string { return e.Hint }

func (e *SubmissionError) Unwrap() error { return e.Err }

// Is matches domain.ErrSubmission.
func (e *SubmissionError) Is(target error) bool { return target == domain.ErrSubmission }

// classifySubmission maps the known wallet parse quirk to a retry hint and
// returns every other error unchanged.
func classifySubmission(err error) error {
	if err == nil {
		return nil
	}
	var se *SubmissionError
	if errors.As(err, &se) {
		return err
	}
	if strings.Contains(err.Error(), walletParseQuirk) {
		return &SubmissionError{Hint: RetryHint, Retry: true, Err: err}
	}
	return err
}

// UserMessage is the text a notice shows for err.
func UserMessage(err error) string {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se.Hint
	}
	return err.Error()
}
