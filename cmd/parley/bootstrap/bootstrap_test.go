package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/cmd/parley/bootstrap"
	"github.com/papercomputeco/parley/pkg/config"
)

var _ = Describe("Load", func() {
	var (
		configDir string
		model     string
		sqlite    string
		storage   string
	)

	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().BoolP("debug", "d", false, "")
		cmd.Flags().String("config-dir", "", "")
		config.AddStringFlag(cmd, config.Flags, config.FlagModel, &model)
		config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &sqlite)
		config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &storage)
		Expect(cmd.ParseFlags(append([]string{"--config-dir", configDir}, args...))).To(Succeed())
		return cmd
	}

	keys := []string{config.FlagModel, config.FlagSQLite, config.FlagStorage}

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		GinkgoT().Setenv("PARLEY_SQLITE", "")
		GinkgoT().Setenv("HOME", GinkgoT().TempDir())
	})

	It("uses defaults without a config file", func() {
		env, err := bootstrap.Load(newCmd(), keys)
		Expect(err).NotTo(HaveOccurred())
		defer env.Close()

		defaults := config.NewDefaultConfig()
		Expect(env.Config.Inference.Model).To(Equal(defaults.Inference.Model))
		Expect(env.ConfigDir).To(Equal(configDir))
		Expect(env.Debug).To(BeFalse())
		Expect(env.Logger).NotTo(BeNil())
	})

	It("resolves the default sqlite path inside the config dir", func() {
		env, err := bootstrap.Load(newCmd(), keys)
		Expect(err).NotTo(HaveOccurred())
		defer env.Close()

		Expect(env.Config.Storage.SQLitePath).To(Equal(filepath.Join(env.TargetDir, "parley.db")))
	})

	It("leaves the sqlite path alone for other providers", func() {
		env, err := bootstrap.Load(newCmd("--storage", "memory"), keys)
		Expect(err).NotTo(HaveOccurred())
		defer env.Close()

		Expect(env.Config.Storage.Provider).To(Equal("memory"))
		Expect(env.Config.Storage.SQLitePath).To(BeEmpty())
	})

	It("lets flags override the config file", func() {
		toml := "[inference]\nmodel = \"from-file\"\n"
		Expect(os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(toml), 0o600)).To(Succeed())

		env, err := bootstrap.Load(newCmd(), keys)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Config.Inference.Model).To(Equal("from-file"))
		env.Close()

		env, err = bootstrap.Load(newCmd("--model", "from-flag", "--debug"), keys)
		Expect(err).NotTo(HaveOccurred())
		defer env.Close()
		Expect(env.Config.Inference.Model).To(Equal("from-flag"))
		Expect(env.Debug).To(BeTrue())
	})

	It("builds an assistant", func() {
		env, err := bootstrap.Load(newCmd("--storage", "memory"), keys)
		Expect(err).NotTo(HaveOccurred())
		defer env.Close()

		a, err := env.NewAssistant(context.Background(), false, nil)
		Expect(err).NotTo(HaveOccurred())
		defer a.Close()

		Expect(a.Orchestrator).NotTo(BeNil())
		Expect(filepath.Join(configDir, "audio")).To(BeADirectory())
	})
})
