package lookup_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/lookup"
)

var _ = Describe("Wikipedia", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		captured *http.Request
		client   *lookup.Wikipedia
	)

	BeforeEach(func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"type":"standard","title":"Myanmar","extract":"Myanmar is a country in Southeast Asia.","content_urls":{"desktop":{"page":"https://en.wikipedia.org/wiki/Myanmar"}}}`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r
			handler(w, r)
		}))
		client = lookup.NewWikipedia(lookup.WikipediaConfig{
			BaseURL:   server.URL + "/",
			UserAgent: "parley-tests",
		})
	})

	AfterEach(func() {
		server.Close()
	})

	It("requests the REST summary with a user agent", func() {
		summary, err := client.Lookup(context.Background(), "myanmar")
		Expect(err).NotTo(HaveOccurred())

		Expect(captured.URL.Path).To(Equal("/api/rest_v1/page/summary/Myanmar"))
		Expect(captured.Header.Get("User-Agent")).To(Equal("parley-tests"))
		Expect(summary.Title).To(Equal("Myanmar"))
		Expect(summary.Extract).To(Equal("Myanmar is a country in Southeast Asia."))
		Expect(summary.URL).To(Equal("https://en.wikipedia.org/wiki/Myanmar"))
	})

	It("escapes multi word titles", func() {
		_, err := client.Lookup(context.Background(), "go programming")
		Expect(err).NotTo(HaveOccurred())
		Expect(captured.URL.Path).To(Equal("/api/rest_v1/page/summary/Go_programming"))
	})

	It("returns ErrNotFound on 404", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}

		_, err := client.Lookup(context.Background(), "zzzz")
		Expect(err).To(MatchError(lookup.ErrNotFound))
	})

	It("returns ErrNotFound on an empty extract", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"title":"Nothing","extract":"  "}`))
		}

		_, err := client.Lookup(context.Background(), "nothing")
		Expect(err).To(MatchError(lookup.ErrNotFound))
	})

	It("returns a StatusError on other failures", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("busy"))
		}

		_, err := client.Lookup(context.Background(), "myanmar")
		var se *lookup.StatusError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.StatusCode).To(Equal(503))
		Expect(se.Body).To(Equal("busy"))
	})

	It("wraps decode errors", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html>`))
		}

		_, err := client.Lookup(context.Background(), "myanmar")
		Expect(err).To(MatchError(ContainSubstring("decoding lookup response")))
	})

	It("rejects empty topics without a request", func() {
		captured = nil
		_, err := client.Lookup(context.Background(), "   ")
		Expect(err).To(MatchError(lookup.ErrEmptyTopic))
		Expect(captured).To(BeNil())
	})
})
