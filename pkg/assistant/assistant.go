// Package assistant builds a ready-to-use orchestrator, memory driver, event
// publisher and speaker from a parley configuration. Every surface (chat,
// tui, ask, serve) goes through it.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/document"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/inference"
	"github.com/papercomputeco/parley/pkg/lookup"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/metrics"
	"github.com/papercomputeco/parley/pkg/orchestrator"
	"github.com/papercomputeco/parley/pkg/session"
	"github.com/papercomputeco/parley/pkg/speech"
)

// Options configures New.
type Options struct {
	// Config is the resolved parley configuration. Required.
	Config *config.Config

	// AudioDir receives synthesized speech artifacts.
	AudioDir string

	// Play attaches the configured player so replies are heard locally.
	// Without it artifacts are kept for the HTTP API to serve.
	Play bool

	// Metrics is optional.
	Metrics *metrics.Metrics

	Logger *zap.Logger
}

// Assistant owns the components behind a conversation.
type Assistant struct {
	Orchestrator *orchestrator.Orchestrator
	Memory       memory.Driver
	Publisher    eventstream.Publisher
	Extractor    *document.Extractor

	// Speaker is nil when speech is unavailable.
	Speaker *speech.Speaker

	Metrics *metrics.Metrics

	config *config.Config
	logger *zap.Logger
}

// Reply is the outcome of Respond.
type Reply struct {
	Turn orchestrator.Turn

	// Speech is set when the answer was queued for speaking.
	Speech *speech.Task
}

// New wires every component from opts. Close releases them.
func New(ctx context.Context, opts Options) (*Assistant, error) {
	if opts.Config == nil {
		return nil, errors.New("assistant requires a config")
	}
	cfg := opts.Config

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	driver, err := NewMemoryDriver(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(cfg.Events)
	if err != nil {
		driver.Close()
		return nil, err
	}

	generator := inference.NewClient(inference.Config{
		Endpoint: cfg.Inference.Endpoint,
		Model:    cfg.Inference.Model,
		Timeout:  time.Duration(cfg.Inference.TimeoutSeconds) * time.Second,
		Headers:  cfg.Inference.Headers,
	})

	var lookuper lookup.Lookuper
	if !cfg.Lookup.Disabled {
		lookuper = lookup.NewWikipedia(lookup.WikipediaConfig{
			BaseURL:   cfg.Lookup.BaseURL,
			UserAgent: cfg.Lookup.UserAgent,
		})
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Generator:        generator,
		Lookuper:         lookuper,
		Trigger:          cfg.Lookup.Trigger,
		LookupMaxChars:   cfg.Lookup.MaxChars,
		DocumentMaxChars: cfg.Document.MaxChars,
		Publisher:        publisher,
		Source: eventstream.EventSource{
			Model:    generator.Model(),
			Endpoint: generator.Endpoint(),
		},
		Metrics: opts.Metrics,
	}, driver, log)
	if err != nil {
		publisher.Close()
		driver.Close()
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	a := &Assistant{
		Orchestrator: orch,
		Memory:       driver,
		Publisher:    publisher,
		Extractor:    document.NewExtractor(cfg.Document.MaxPages),
		Metrics:      opts.Metrics,
		config:       cfg,
		logger:       log,
	}

	a.Speaker, err = newSpeaker(cfg.Speech, opts, log)
	if err != nil {
		log.Warn("speech unavailable", zap.Error(err))
	}

	log.Debug("assistant ready",
		zap.String("model", generator.Model()),
		zap.String("endpoint", generator.Endpoint()),
		zap.String("storage", cfg.Storage.Provider),
		zap.String("events", cfg.Events.Provider),
		zap.Bool("lookup", lookuper != nil),
		zap.Bool("speech", a.Speaker != nil),
	)

	return a, nil
}

// newSpeaker returns nil, nil when no synth command is configured or its
// program is not installed.
func newSpeaker(cfg config.SpeechConfig, opts Options, log *zap.Logger) (*speech.Speaker, error) {
	fields := strings.Fields(cfg.SynthCommand)
	if len(fields) == 0 {
		return nil, nil
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		log.Debug("speech synthesizer not found", zap.String("program", fields[0]))
		return nil, nil
	}

	synth, err := speech.NewCommandSynthesizer(cfg.SynthCommand)
	if err != nil {
		return nil, err
	}

	var player speech.Player
	if opts.Play && cfg.PlayerCommand != "" {
		player, err = speech.NewCommandPlayer(cfg.PlayerCommand)
		if err != nil {
			return nil, err
		}
	}

	return speech.NewSpeaker(&speech.Config{
		Synthesizer: synth,
		Player:      player,
		OutputDir:   opts.AudioDir,
		MaxChars:    cfg.MaxChars,
		Logger:      log,
		Metrics:     opts.Metrics,
	})
}

// Respond runs one turn and, when the session has voice on and the turn was
// answered, queues the answer for speaking.
func (a *Assistant) Respond(ctx context.Context, sess *session.Session, text string) Reply {
	turn := a.Orchestrator.HandleTurn(ctx, sess, text)
	return Reply{Turn: turn, Speech: a.SpeakTurn(sess, turn)}
}

// SpeakTurn queues an answered turn for speaking when sess has voice on. It
// returns nil when nothing was queued.
func (a *Assistant) SpeakTurn(sess *session.Session, turn orchestrator.Turn) *speech.Task {
	if !turn.OK() || sess == nil || !sess.Voice() || a.Speaker == nil {
		return nil
	}
	return a.Speaker.Speak(turn.Answer)
}

// LoadDocument extracts path and makes it the session's document context.
// The session is unchanged on failure.
func (a *Assistant) LoadDocument(ctx context.Context, sess *session.Session, path string) (document.Document, error) {
	doc, err := a.Extractor.Extract(ctx, path)
	if err != nil {
		return document.Document{}, err
	}
	sess.SetDocument(doc.Name, doc.Text)
	return doc, nil
}

// LoadDocumentBytes is LoadDocument for uploaded content.
func (a *Assistant) LoadDocumentBytes(ctx context.Context, sess *session.Session, name string, data []byte) (document.Document, error) {
	doc, err := a.Extractor.ExtractBytes(ctx, name, data)
	if err != nil {
		return document.Document{}, err
	}
	sess.SetDocument(doc.Name, doc.Text)
	return doc, nil
}

// Config returns the configuration the assistant was built from.
func (a *Assistant) Config() *config.Config {
	return a.config
}

// Close drains speech and event publishing, then closes the stores.
func (a *Assistant) Close() error {
	a.Speaker.Close()
	a.Orchestrator.Close()

	var errs []error
	if err := a.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing publisher: %w", err))
	}
	if err := a.Memory.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing memory: %w", err))
	}
	return errors.Join(errs...)
}
