package speech_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/parley/pkg/speech"
)

type fakeSynth struct {
	mu      sync.Mutex
	texts   []string
	err     error
	block   chan struct{}
	started chan string
}

func (f *fakeSynth) Synthesize(_ context.Context, text, outPath string) error {
	if f.started != nil {
		f.started <- text
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("RIFF"), 0o600)
}

func (f *fakeSynth) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakePlayer struct {
	mu     sync.Mutex
	played []string
	err    error
}

func (f *fakePlayer) Play(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(path); err != nil {
		return err
	}
	f.played = append(f.played, path)
	return f.err
}

var _ = Describe("Speaker", func() {
	var (
		outDir string
		synth  *fakeSynth
		ctx    context.Context
	)

	BeforeEach(func() {
		outDir = GinkgoT().TempDir()
		synth = &fakeSynth{}
		ctx = context.Background()
	})

	newSpeaker := func(player speech.Player, queue uint) *speech.Speaker {
		sp, err := speech.NewSpeaker(&speech.Config{
			Synthesizer: synth,
			Player:      player,
			OutputDir:   outDir,
			QueueSize:   queue,
			Logger:      zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(sp.Close)
		return sp
	}

	It("requires a synthesizer", func() {
		_, err := speech.NewSpeaker(&speech.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("keeps artifacts when no player is configured", func() {
		sp := newSpeaker(nil, 0)

		task := sp.Speak("Hello there. Second sentence. Third.")
		path, err := task.Wait(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(outDir, task.ArtifactName())))
		Expect(task.Text).To(Equal("Hello there. Second sentence."))

		_, err = os.Stat(path)
		Expect(err).NotTo(HaveOccurred())

		resolved, err := sp.ArtifactPath(task.ArtifactName())
		Expect(err).NotTo(HaveOccurred())
		Expect(resolved).To(Equal(path))
	})

	It("plays and removes artifacts when a player is configured", func() {
		player := &fakePlayer{}
		sp := newSpeaker(player, 0)

		task := sp.Speak("Hi.")
		path, err := task.Wait(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(BeEmpty())
		Expect(player.played).To(HaveLen(1))

		_, err = os.Stat(player.played[0])
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("reports synthesis failures on the task only", func() {
		synth.err = errors.New("engine missing")
		sp := newSpeaker(nil, 0)

		_, err := sp.Speak("Hi.").Wait(ctx)
		Expect(err).To(MatchError(ContainSubstring("engine missing")))

		entries, err := os.ReadDir(outDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("reports playback failures", func() {
		sp := newSpeaker(&fakePlayer{err: errors.New("no device")}, 0)

		_, err := sp.Speak("Hi.").Wait(ctx)
		Expect(err).To(MatchError(ContainSubstring("playing speech")))
	})

	It("finishes immediately for empty text", func() {
		sp := newSpeaker(nil, 0)

		task := sp.Speak("```code only```")
		Eventually(task.Done()).Should(BeClosed())
		_, err := task.Wait(ctx)
		Expect(err).To(MatchError(speech.ErrEmptyText))
		Expect(synth.Texts()).To(BeEmpty())
	})

	It("drops tasks when the queue is full", func() {
		synth.block = make(chan struct{})
		synth.started = make(chan string, 4)
		sp := newSpeaker(nil, 1)

		first := sp.Speak("One.")
		Eventually(synth.started).Should(Receive(Equal("One.")))
		second := sp.Speak("Two.")
		third := sp.Speak("Three.")

		_, err := third.Wait(ctx)
		Expect(err).To(MatchError(speech.ErrQueueFull))

		close(synth.block)
		_, err = first.Wait(ctx)
		Expect(err).NotTo(HaveOccurred())
		_, err = second.Wait(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects work after Close and drains queued work", func() {
		sp, err := speech.NewSpeaker(&speech.Config{Synthesizer: synth, OutputDir: outDir})
		Expect(err).NotTo(HaveOccurred())

		queued := sp.Speak("Queued.")
		sp.Close()
		sp.Close()

		Expect(queued.Done()).To(BeClosed())
		_, err = sp.Speak("Late.").Wait(ctx)
		Expect(err).To(MatchError(speech.ErrClosed))
	})

	It("treats a nil speaker as disabled", func() {
		var sp *speech.Speaker
		_, err := sp.Speak("Hi.").Wait(ctx)
		Expect(err).To(MatchError(speech.ErrDisabled))
	})

	It("rejects artifact names outside the output dir", func() {
		sp := newSpeaker(nil, 0)
		_, err := sp.ArtifactPath("../etc/passwd.wav")
		Expect(err).To(HaveOccurred())
		_, err = sp.ArtifactPath("notauuid.wav")
		Expect(err).To(HaveOccurred())
	})

	It("prunes old artifacts", func() {
		sp := newSpeaker(nil, 0)
		path, err := sp.Speak("Hi.").Wait(ctx)
		Expect(err).NotTo(HaveOccurred())

		old := time.Now().Add(-2 * time.Hour)
		Expect(os.Chtimes(path, old, old)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(outDir, "keep.txt"), nil, 0o600)).To(Succeed())

		n, err := sp.PruneArtifacts(time.Hour)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		_, err = os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
