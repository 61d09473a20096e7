package speech_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/speech"
)

var _ = Describe("ExpandCommand", func() {
	It("substitutes placeholders per argument", func() {
		name, args, err := speech.ExpandCommand("espeak-ng -w {output} {text}", map[string]string{
			"{output}": "/tmp/a.wav",
			"{text}":   "hello there; rm -rf /",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("espeak-ng"))
		Expect(args).To(Equal([]string{"-w", "/tmp/a.wav", "hello there; rm -rf /"}))
	})

	It("rejects empty templates", func() {
		_, _, err := speech.ExpandCommand("   ", nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("CommandSynthesizer", func() {
	It("requires an output placeholder", func() {
		_, err := speech.NewCommandSynthesizer("espeak-ng {text}")
		Expect(err).To(HaveOccurred())
	})

	It("runs the command", func() {
		if _, err := exec.LookPath("touch"); err != nil {
			Skip("touch not available")
		}
		out := filepath.Join(GinkgoT().TempDir(), "a.wav")

		s, err := speech.NewCommandSynthesizer("touch {output}")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Synthesize(context.Background(), "hi", out)).To(Succeed())

		_, err = os.Stat(out)
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports command failures", func() {
		s, err := speech.NewCommandSynthesizer("parley-no-such-binary {output}")
		Expect(err).NotTo(HaveOccurred())
		err = s.Synthesize(context.Background(), "hi", "/tmp/x.wav")
		Expect(err).To(MatchError(ContainSubstring("running parley-no-such-binary")))
	})
})

var _ = Describe("CommandPlayer", func() {
	It("requires a file placeholder", func() {
		_, err := speech.NewCommandPlayer("aplay -q")
		Expect(err).To(HaveOccurred())
	})

	It("runs the command", func() {
		if _, err := exec.LookPath("cat"); err != nil {
			Skip("cat not available")
		}
		path := filepath.Join(GinkgoT().TempDir(), "a.wav")
		Expect(os.WriteFile(path, []byte("RIFF"), 0o600)).To(Succeed())

		p, err := speech.NewCommandPlayer("cat {file}")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Play(context.Background(), path)).To(Succeed())
	})
})
