package orchestrator

import (
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/inference"
	"github.com/papercomputeco/parley/pkg/lookup"
	"github.com/papercomputeco/parley/pkg/metrics"
)

const (
	// DefaultDocumentMaxChars caps the document context placed in a prompt.
	DefaultDocumentMaxChars = 1000

	// DefaultLookupMaxChars caps the lookup summary placed in a prompt.
	DefaultLookupMaxChars = 600
)

// Config is the orchestrator configuration.
type Config struct {
	// Generator answers prompts. Required.
	Generator inference.Generator

	// Lookuper resolves lookup topics. Nil disables lookups.
	Lookuper lookup.Lookuper

	// Trigger is the lookup keyword. Defaults to lookup.DefaultTrigger.
	Trigger string

	// LookupMaxChars caps the summary. Defaults to DefaultLookupMaxChars.
	LookupMaxChars int

	// DocumentMaxChars caps the document context. Defaults to DefaultDocumentMaxChars.
	DocumentMaxChars int

	// Publisher receives an event per persisted record. Nil disables events.
	Publisher eventstream.Publisher

	// Source describes the model in published events.
	Source eventstream.EventSource

	// Metrics is optional.
	Metrics *metrics.Metrics
}
