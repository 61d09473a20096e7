// Package speech speaks replies aloud without blocking conversation turns.
//
// A Speaker owns a small worker pool. Speak prepares the text, queues a Task
// and returns immediately; workers synthesize an audio artifact and, when a
// Player is configured, play and then remove it. Failures are reported on
// the Task and logged at debug level only.
package speech

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/parley/pkg/metrics"
)

var (
	defaultNumWorkers  uint = 1
	defaultQueueSize   uint = 16
	defaultMaxChars         = 300
	defaultTaskTimeout      = 60 * time.Second
)

// ArtifactExt is the extension of synthesized audio files.
const ArtifactExt = ".wav"

var (
	// ErrQueueFull completes tasks that could not be queued.
	ErrQueueFull = errors.New("speech queue full")

	// ErrEmptyText completes tasks with nothing left to say after cleanup.
	ErrEmptyText = errors.New("nothing to speak")

	// ErrClosed completes tasks submitted after Close.
	ErrClosed = errors.New("speaker closed")

	// ErrDisabled completes tasks submitted to a nil Speaker.
	ErrDisabled = errors.New("speech disabled")
)

// Config is the configuration options for the Speaker.
type Config struct {
	// Synthesizer produces audio artifacts. Required.
	Synthesizer Synthesizer

	// Player plays artifacts. When nil, artifacts are kept in OutputDir so
	// another surface (the HTTP API) can serve them.
	Player Player

	// OutputDir receives artifacts. Defaults to os.TempDir().
	OutputDir string

	// MaxChars clips the spoken text. Defaults to 300.
	MaxChars int

	// NumWorkers is the number of synthesis workers (defaults to 1 so
	// replies never talk over each other).
	NumWorkers uint

	// QueueSize is the capacity of the buffered task channel (defaults to 16).
	QueueSize uint

	// TaskTimeout bounds synthesis plus playback. Defaults to 60s.
	TaskTimeout time.Duration

	// Logger is the provided zap logger
	Logger *zap.Logger

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Task tracks one Speak request.
type Task struct {
	// ID names the artifact: ID + ArtifactExt.
	ID string

	// Text is the prepared text that is spoken.
	Text string

	done chan struct{}
	path string
	err  error
}

func newTask(text string) *Task {
	return &Task{
		ID:   uuid.NewString(),
		Text: text,
		done: make(chan struct{}),
	}
}

func (t *Task) finish(path string, err error) {
	t.path = path
	t.err = err
	close(t.done)
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done. It returns the artifact
// path (empty when the artifact was removed after playback) and the task error.
func (t *Task) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.path, t.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ArtifactName is the file name of the task's audio artifact.
func (t *Task) ArtifactName() string {
	return t.ID + ArtifactExt
}

// Speaker processes speech tasks asynchronously via a worker pool.
type Speaker struct {
	config *Config
	queue  chan *Task
	wg     sync.WaitGroup
	logger *zap.Logger

	// mu guards closed so Speak never sends on a closed queue.
	mu     sync.RWMutex
	closed bool
}

// NewSpeaker creates a new Speaker and starts its worker goroutines.
func NewSpeaker(c *Config) (*Speaker, error) {
	if c.Synthesizer == nil {
		return nil, errors.New("speaker requires a synthesizer")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.MaxChars <= 0 {
		c.MaxChars = defaultMaxChars
	}

	if c.TaskTimeout <= 0 {
		c.TaskTimeout = defaultTaskTimeout
	}

	if c.OutputDir == "" {
		c.OutputDir = os.TempDir()
	}

	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating speech output dir: %w", err)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	sp := &Speaker{
		config: c,
		queue:  make(chan *Task, c.QueueSize),
		logger: c.Logger,
	}

	sp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go sp.worker(i)
	}

	return sp, nil
}

// Speak queues text for synthesis and returns immediately. The returned Task
// is already finished when the text is empty after cleanup, the queue is
// full, or the speaker is closed. A nil Speaker finishes every task with
// ErrDisabled.
func (s *Speaker) Speak(text string) *Task {
	if s == nil {
		task := newTask("")
		task.finish("", ErrDisabled)
		return task
	}

	task := newTask(PrepareText(text, s.config.MaxChars))

	if task.Text == "" {
		s.config.Metrics.ObserveSpeech(metrics.OutcomeSkipped)
		task.finish("", ErrEmptyText)
		return task
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		task.finish("", ErrClosed)
		return task
	}

	select {
	case s.queue <- task:
		s.logger.Debug("speech task queued", zap.String("task_id", task.ID))
	default:
		s.logger.Debug("speech task dropped, queue full", zap.String("task_id", task.ID))
		s.config.Metrics.ObserveSpeech(metrics.OutcomeDropped)
		task.finish("", ErrQueueFull)
	}

	return task
}

// OutputDir is where artifacts are written.
func (s *Speaker) OutputDir() string {
	return s.config.OutputDir
}

// ArtifactPath resolves an artifact name inside OutputDir. Names that are not
// plain artifact file names are rejected.
func (s *Speaker) ArtifactPath(name string) (string, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, ArtifactExt) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	if _, err := uuid.Parse(strings.TrimSuffix(name, ArtifactExt)); err != nil {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(s.config.OutputDir, name), nil
}

// PruneArtifacts removes artifacts older than maxAge and returns how many
// were removed.
func (s *Speaker) PruneArtifacts(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.config.OutputDir)
	if err != nil {
		return 0, fmt.Errorf("reading speech output dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ArtifactExt) {
			continue
		}
		if _, err := s.ArtifactPath(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.OutputDir, e.Name())); err == nil {
			removed++
		}
	}

	return removed, nil
}

// Close signals workers to stop and waits for queued tasks to drain.
// Closing a nil Speaker is a no-op.
func (s *Speaker) Close() {
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}

// worker is the inner worker thread that continuously pulls tasks off the queue
func (s *Speaker) worker(id uint) {
	defer s.wg.Done()
	s.logger.Debug("speech worker started", zap.Uint("worker_id", id))

	for task := range s.queue {
		s.process(task)
	}

	s.logger.Debug("speech worker stopped", zap.Uint("worker_id", id))
}

// process synthesizes and optionally plays one task.
func (s *Speaker) process(task *Task) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.TaskTimeout)
	defer cancel()

	path := filepath.Join(s.config.OutputDir, task.ArtifactName())

	if err := s.config.Synthesizer.Synthesize(ctx, task.Text, path); err != nil {
		s.fail(task, path, fmt.Errorf("synthesizing speech: %w", err))
		return
	}

	if s.config.Player == nil {
		s.config.Metrics.ObserveSpeech(metrics.OutcomeOK)
		task.finish(path, nil)
		return
	}

	err := s.config.Player.Play(ctx, path)
	_ = os.Remove(path)
	if err != nil {
		s.fail(task, "", fmt.Errorf("playing speech: %w", err))
		return
	}

	s.config.Metrics.ObserveSpeech(metrics.OutcomeOK)
	task.finish("", nil)
}

func (s *Speaker) fail(task *Task, path string, err error) {
	if path != "" {
		_ = os.Remove(path)
	}
	s.logger.Debug("speech task failed",
		zap.String("task_id", task.ID),
		zap.Error(err),
	)
	s.config.Metrics.ObserveSpeech(metrics.OutcomeError)
	task.finish("", err)
}
