// Package orchestrator runs a single conversation turn: optional lookup,
// prompt assembly, inference, answer extraction and memory append.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/lookup"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/metrics"
	"github.com/papercomputeco/parley/pkg/session"
	"github.com/papercomputeco/parley/pkg/utils"
)

// Orchestrator turns user text into answers. It is safe for concurrent use.
type Orchestrator struct {
	config Config
	driver memory.Driver
	logger *zap.Logger

	// publishing tracks in-flight event publishes so Close can drain them.
	// closed is guarded by mu and stops new publishes once Close has begun.
	mu         sync.Mutex
	closed     bool
	publishing sync.WaitGroup
}

// New creates an Orchestrator. The driver receives one record per answered
// turn.
func New(config Config, driver memory.Driver, logger *zap.Logger) (*Orchestrator, error) {
	if config.Generator == nil {
		return nil, errors.New("generator is required")
	}
	if driver == nil {
		return nil, memory.ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if config.Trigger == "" {
		config.Trigger = lookup.DefaultTrigger
	}
	if config.LookupMaxChars <= 0 {
		config.LookupMaxChars = DefaultLookupMaxChars
	}
	if config.DocumentMaxChars <= 0 {
		config.DocumentMaxChars = DefaultDocumentMaxChars
	}

	return &Orchestrator{
		config: config,
		driver: driver,
		logger: logger,
	}, nil
}

// HandleTurn runs one turn for sess and returns its result. Failures are
// reported on the Turn, never as a panic or error. sess may be nil, in which
// case there is no document context and no history is recorded.
func (o *Orchestrator) HandleTurn(ctx context.Context, sess *session.Session, userText string) Turn {
	turn := Turn{
		ID:        uuid.NewString(),
		UserText:  userText,
		StartedAt: time.Now().UTC(),
	}
	if sess != nil {
		turn.SessionID = sess.ID
		sess.Touch()
	}

	if strings.TrimSpace(userText) == "" {
		turn.Status = StatusSkipped
		o.config.Metrics.ObserveTurn(string(turn.Status), 0)
		return turn
	}

	if sess != nil {
		_, doc := sess.Document()
		turn.DocumentExcerpt = utils.Clip(doc, o.config.DocumentMaxChars)
	}

	turn.LookupTopic, turn.LookupSummary = o.lookup(ctx, userText)
	turn.Prompt = BuildPrompt(turn.DocumentExcerpt, turn.LookupSummary, userText)

	answer, err := o.config.Generator.Generate(ctx, turn.Prompt)
	if err != nil {
		turn.Err = err
		turn.Status, turn.StatusCode, turn.Answer = Diagnostic(err)
		o.logger.Warn("inference failed",
			zap.String("session_id", turn.SessionID),
			zap.String("turn_id", turn.ID),
			zap.String("status", string(turn.Status)),
			zap.Error(err),
		)
	} else {
		turn.Status = StatusAnswered
		turn.Answer = answer
		o.persist(ctx, &turn)
	}

	turn.Duration = time.Since(turn.StartedAt)

	if sess != nil {
		sess.Record(session.Entry{
			TurnID:   turn.ID,
			UserText: userText,
			Answer:   turn.Answer,
			OK:       turn.OK(),
			At:       time.Now().UTC(),
		})
	}

	o.config.Metrics.ObserveTurn(string(turn.Status), turn.Duration)
	o.logger.Info("turn handled",
		zap.String("session_id", turn.SessionID),
		zap.String("turn_id", turn.ID),
		zap.String("status", string(turn.Status)),
		zap.Bool("lookup", turn.LookupSummary != ""),
		zap.Bool("document", turn.DocumentExcerpt != ""),
		zap.Duration("duration", turn.Duration),
	)

	return turn
}

// lookup returns the topic and clipped summary for userText. Every failure
// is swallowed: the turn proceeds without a summary.
func (o *Orchestrator) lookup(ctx context.Context, userText string) (string, string) {
	topic, triggered := lookup.Topic(userText, o.config.Trigger)
	if !triggered {
		return "", ""
	}
	if topic == "" || o.config.Lookuper == nil {
		o.config.Metrics.ObserveLookup(metrics.OutcomeSkipped)
		return topic, ""
	}

	summary, err := o.config.Lookuper.Lookup(ctx, topic)
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		o.config.Metrics.ObserveLookup(metrics.OutcomeNotFound)
		o.logger.Debug("lookup found nothing", zap.String("topic", topic))
		return topic, ""
	case err != nil:
		o.config.Metrics.ObserveLookup(metrics.OutcomeError)
		o.logger.Warn("lookup failed", zap.String("topic", topic), zap.Error(err))
		return topic, ""
	}

	o.config.Metrics.ObserveLookup(metrics.OutcomeFound)
	return topic, utils.Clip(summary.Extract, o.config.LookupMaxChars)
}

// persist appends the answered turn to memory. The append outlives a
// cancelled caller so an answer that was shown is also remembered.
func (o *Orchestrator) persist(ctx context.Context, turn *Turn) {
	ctx = context.WithoutCancel(ctx)

	rec, err := o.driver.Append(ctx, memory.NewRecord(turn.UserText, turn.Answer))
	if err != nil {
		turn.PersistErr = err
		o.config.Metrics.ObserveMemoryWrite(metrics.OutcomeError)
		o.logger.Error("failed to persist memory record",
			zap.String("session_id", turn.SessionID),
			zap.String("turn_id", turn.ID),
			zap.Error(err),
		)
		return
	}

	turn.RecordID = rec.ID
	o.config.Metrics.ObserveMemoryWrite(metrics.OutcomeOK)

	if o.config.Publisher == nil {
		return
	}

	event := eventstream.NewMemoryRecordedEvent(o.config.Source, eventstream.TurnMeta{
		SessionID:   turn.SessionID,
		TurnID:      turn.ID,
		LookupTopic: turn.LookupTopic,
		HasDocument: turn.DocumentExcerpt != "",
		StartedAt:   turn.StartedAt,
		DurationMs:  time.Since(turn.StartedAt).Milliseconds(),
	}, rec)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.logger.Debug("orchestrator closed, memory event dropped",
			zap.String("turn_id", turn.ID),
		)
		return
	}
	o.publishing.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.publishing.Done()
		if err := o.config.Publisher.PublishRecord(ctx, event); err != nil {
			o.logger.Warn("failed to publish memory event",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
		}
	}()
}

// Submit runs HandleTurn on its own goroutine. Overlapping submissions for the
// same session are not serialized.
func (o *Orchestrator) Submit(ctx context.Context, sess *session.Session, userText string) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.turn = o.HandleTurn(ctx, sess, userText)
	}()
	return p
}

// Close waits for in-flight event publishes. Turns finishing after Close
// are still answered and persisted, but their events are not published.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.publishing.Wait()
}

// Pending is a turn running in the background.
type Pending struct {
	done chan struct{}
	turn Turn
}

// Done is closed when the turn is complete.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the turn completes or ctx is done.
func (p *Pending) Wait(ctx context.Context) (Turn, error) {
	select {
	case <-p.done:
		return p.turn, nil
	case <-ctx.Done():
		return Turn{}, ctx.Err()
	}
}
