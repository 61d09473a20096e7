package chatcmder_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/parley/cmd/parley/chat"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("registers the conversation flags", func() {
		cmd := chatcmder.NewChatCmd()
		for _, name := range []string{"model", "endpoint", "timeout", "no-lookup", "voice", "document", "watch", "sqlite"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("model").Shorthand).To(Equal("m"))
	})
})

var _ = Describe("Chat session", func() {
	var (
		configDir string
		workDir   string
		server    *httptest.Server
		mu        sync.Mutex
		prompts   []string
	)

	run := func(input string, args ...string) string {
		root := &cobra.Command{Use: "parley"}
		root.PersistentFlags().BoolP("debug", "d", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(chatcmder.NewChatCmd())

		var out bytes.Buffer
		root.SetIn(strings.NewReader(input))
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append([]string{"chat", "--config-dir", configDir}, args...))
		Expect(root.Execute()).To(Succeed())
		return out.String()
	}

	recorded := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), prompts...)
	}

	BeforeEach(func() {
		prompts = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Prompt string `json:"prompt"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			mu.Lock()
			prompts = append(prompts, req.Prompt)
			mu.Unlock()
			w.Write([]byte(`{"response":"Hi there"}`))
		}))
		DeferCleanup(server.Close)

		configDir = GinkgoT().TempDir()
		workDir = GinkgoT().TempDir()
		toml := fmt.Sprintf(`[inference]
endpoint = %q

[lookup]
disabled = true

[storage]
provider = "memory"

[speech]
synth_command = "parley-no-such-tts -w {output} {text}"
`, server.URL+"/api/generate")
		Expect(os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(toml), 0o600)).To(Succeed())
	})

	It("answers messages until /exit", func() {
		out := run("hello\n/exit\nnever sent\n")

		Expect(out).To(ContainSubstring("Hi there"))
		Expect(recorded()).To(HaveLen(1))
		Expect(recorded()[0]).To(HaveSuffix("User: hello\nAI:"))
	})

	It("stops at end of input", func() {
		out := run("hello\n")
		Expect(out).To(ContainSubstring("Hi there"))
	})

	It("ignores blank lines", func() {
		run("\n   \n/exit\n")
		Expect(recorded()).To(BeEmpty())
	})

	It("uses an uploaded document as context", func() {
		path := filepath.Join(workDir, "notes.txt")
		Expect(os.WriteFile(path, []byte("launch on friday"), 0o600)).To(Succeed())

		out := run(fmt.Sprintf("/upload %s\nwhen is launch?\n", path))

		Expect(out).To(ContainSubstring("loaded notes.txt"))
		Expect(recorded()).To(HaveLen(1))
		Expect(recorded()[0]).To(HavePrefix("Document Context: launch on friday\n"))
	})

	It("loads --document at startup", func() {
		path := filepath.Join(workDir, "notes.md")
		Expect(os.WriteFile(path, []byte("# agenda"), 0o600)).To(Succeed())

		run("what is on the agenda?\n", "--document", path)

		Expect(recorded()[0]).To(HavePrefix("Document Context: # agenda\n"))
	})

	It("reports unreadable documents inline", func() {
		out := run("/upload /nonexistent/file.pdf\n/upload image.png\n")

		Expect(strings.Count(out, "could not read document")).To(Equal(2))
	})

	It("clears the document", func() {
		path := filepath.Join(workDir, "notes.txt")
		Expect(os.WriteFile(path, []byte("secret"), 0o600)).To(Succeed())

		run(fmt.Sprintf("/upload %s\n/clear\nhello\n", path))

		Expect(recorded()[0]).To(HavePrefix("Document Context: \n"))
	})

	It("prints the session history", func() {
		out := run("first question\n/history\n")

		Expect(out).To(ContainSubstring("first question"))
		Expect(strings.Count(out, "Hi there")).To(Equal(2))
	})

	It("reports an empty history", func() {
		out := run("/history\n")
		Expect(out).To(ContainSubstring("no turns yet"))
	})

	It("rejects unknown commands", func() {
		out := run("/dance\n")
		Expect(out).To(ContainSubstring("unknown command /dance"))
	})

	It("validates /voice arguments", func() {
		out := run("/voice maybe\n")
		Expect(out).To(ContainSubstring("usage: /voice on|off"))
	})

	It("shows diagnostics when the model is unreachable", func() {
		server.Close()

		out := run("hello\n")
		Expect(out).To(ContainSubstring("Inference connection error"))
	})
})
