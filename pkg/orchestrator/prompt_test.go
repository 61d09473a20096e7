package orchestrator_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/orchestrator"
)

var _ = Describe("BuildPrompt", func() {
	It("uses the fixed labels in order", func() {
		prompt := orchestrator.BuildPrompt("doc text", "summary text", "hi")
		Expect(prompt).To(Equal("Document Context: doc text\nWeb Knowledge: summary text\nUser: hi\nAI:"))
	})

	It("keeps empty sections", func() {
		prompt := orchestrator.BuildPrompt("", "", "hello")
		Expect(prompt).To(Equal("Document Context: \nWeb Knowledge: \nUser: hello\nAI:"))
	})

	It("always ends with the user text and the answer cue", func() {
		for _, text := range []string{"a", "search go", "multi\nline"} {
			Expect(strings.HasSuffix(orchestrator.BuildPrompt("d", "s", text), "User: "+text+"\nAI:")).To(BeTrue())
		}
	})
})
