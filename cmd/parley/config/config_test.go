package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/parley/cmd/parley/config"
	"github.com/papercomputeco/parley/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}

		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.Chdir, origDir)

		// Create a local .parley dir so the manager picks it up
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".parley"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(execute("set", "inference.model", "llama3.2:latest")).To(Succeed())

			path := filepath.Join(tmpDir, ".parley", "config.toml")
			Expect(path).To(BeAnExistingFile())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			cfg, err := config.ParseConfigTOML(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Inference.Model).To(Equal("llama3.2:latest"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("set", "invalid_key", "value")).NotTo(Succeed())
		})

		It("rejects malformed values", func() {
			Expect(execute("set", "lookup.max_chars", "lots")).NotTo(Succeed())
		})

		It("requires exactly two arguments", func() {
			Expect(execute("set", "inference.model")).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("prints a value that was set", func() {
			Expect(execute("set", "api.listen", ":9000")).To(Succeed())
			out.Reset()

			Expect(execute("get", "api.listen")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(":9000"))
		})

		It("prints defaults when nothing was set", func() {
			Expect(execute("get", "inference.model")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(config.NewDefaultConfig().Inference.Model))
		})

		It("rejects unknown keys", func() {
			Expect(execute("get", "nope")).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("prints every key", func() {
			Expect(execute("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
		})
	})
})
