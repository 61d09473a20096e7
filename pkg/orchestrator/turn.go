package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/parley/pkg/inference"
	"github.com/papercomputeco/parley/pkg/utils"
)

// Status is the outcome of a turn.
type Status string

const (
	// StatusSkipped means the input was blank and nothing was sent.
	StatusSkipped Status = "skipped"

	// StatusAnswered means the model produced a parseable answer.
	StatusAnswered Status = "answered"

	// StatusTransportFailure covers connection failures and timeouts.
	StatusTransportFailure Status = "transport_failure"

	// StatusServerFailure is a non-200 reply from the inference server.
	StatusServerFailure Status = "server_failure"

	// StatusInvalidResponse is a 200 reply that could not be decoded.
	StatusInvalidResponse Status = "invalid_response"
)

// maxDiagnosticBody caps the response body excerpt shown to users.
const maxDiagnosticBody = 200

// Turn is the immutable result of one submission.
type Turn struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	UserText  string `json:"user_text"`

	// DocumentExcerpt is the document context that went into the prompt.
	DocumentExcerpt string `json:"document_excerpt,omitempty"`

	// LookupTopic is set whenever the text triggered a lookup, even if the
	// lookup then failed.
	LookupTopic   string `json:"lookup_topic,omitempty"`
	LookupSummary string `json:"lookup_summary,omitempty"`

	Prompt string `json:"prompt,omitempty"`

	// Answer always holds display text: the model answer on success and a
	// diagnostic otherwise.
	Answer string `json:"answer"`

	Status     Status `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`

	// Err is the inference failure behind a non-answered status.
	Err error `json:"-"`

	// PersistErr is set when the answer could not be written to memory.
	// It never changes Answer or Status.
	PersistErr error `json:"-"`

	// RecordID is the memory record written for this turn, or 0.
	RecordID int64 `json:"record_id,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// OK reports whether the turn produced a model answer.
func (t Turn) OK() bool {
	return t.Status == StatusAnswered
}

// Diagnostic renders an inference failure for display.
func Diagnostic(err error) (Status, int, string) {
	ie, ok := inference.AsError(err)
	if !ok {
		return StatusTransportFailure, 0, fmt.Sprintf("Inference connection error: %v", err)
	}

	switch ie.Kind {
	case inference.KindStatus:
		body := utils.Truncate(strings.TrimSpace(ie.Body), maxDiagnosticBody)
		return StatusServerFailure, ie.StatusCode, fmt.Sprintf("Inference server returned status %d: %s", ie.StatusCode, body)
	case inference.KindDecode:
		return StatusInvalidResponse, ie.StatusCode, fmt.Sprintf("Invalid response from inference server: %v", ie.Err)
	default:
		return StatusTransportFailure, 0, fmt.Sprintf("Inference connection error: %v", ie.Err)
	}
}
