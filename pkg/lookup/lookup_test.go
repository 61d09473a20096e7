package lookup_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/lookup"
)

var _ = Describe("Topic", func() {
	DescribeTable("derives topics",
		func(text, wantTopic string, wantTriggered bool) {
			topic, triggered := lookup.Topic(text, "search")
			Expect(triggered).To(Equal(wantTriggered))
			Expect(topic).To(Equal(wantTopic))
		},
		Entry("plain trigger", "search Myanmar", "myanmar", true),
		Entry("upper-case trigger", "SEARCH Go programming", "go programming", true),
		Entry("trigger mid sentence", "please search quantum computing", "please  quantum computing", true),
		Entry("only first occurrence removed", "search research", "research", true),
		Entry("trigger alone", "  search  ", "", true),
		Entry("no trigger", "hello there", "", false),
		Entry("trigger inside another word", "researcher", "reer", true),
	)

	It("uses the default trigger when empty", func() {
		topic, triggered := lookup.Topic("search cats", "")
		Expect(triggered).To(BeTrue())
		Expect(topic).To(Equal("cats"))
	})

	It("matches custom triggers case-insensitively", func() {
		topic, triggered := lookup.Topic("Wiki Rust", "WIKI")
		Expect(triggered).To(BeTrue())
		Expect(topic).To(Equal("rust"))
	})
})

var _ = Describe("PageTitle", func() {
	It("underscores and capitalizes", func() {
		Expect(lookup.PageTitle("  go   programming ")).To(Equal("Go_programming"))
		Expect(lookup.PageTitle("myanmar")).To(Equal("Myanmar"))
		Expect(lookup.PageTitle("")).To(BeEmpty())
	})
})
