package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/api"
	"github.com/papercomputeco/parley/pkg/assistant"
	"github.com/papercomputeco/parley/pkg/config"
	parleylogger "github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/metrics"
	"github.com/papercomputeco/parley/pkg/session"
)

var _ = Describe("Server", func() {
	var (
		ctx       context.Context
		inference *httptest.Server
		status    int
		reply     string
		prompts   []string
		cfg       *config.Config
		sessions  *session.Manager
		asst      *assistant.Assistant
		server    *api.Server
	)

	build := func() {
		var err error
		sessions = session.NewManager(false)
		asst, err = assistant.New(ctx, assistant.Options{
			Config:   cfg,
			AudioDir: GinkgoT().TempDir(),
			Metrics:  metrics.New(sessions.Len),
			Logger:   parleylogger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(asst.Close)

		server, err = api.NewServer(api.Config{ListenAddr: ":0"}, asst, sessions, parleylogger.Nop())
		Expect(err).NotTo(HaveOccurred())
	}

	do := func(req *http.Request) (*http.Response, []byte) {
		resp, err := server.App().Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, body
	}

	jsonRequest := func(method, path string, v any) *http.Request {
		raw, err := json.Marshal(v)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	chat := func(message, sessionID string) api.ChatResponse {
		resp, body := do(jsonRequest(http.MethodPost, "/v1/chat", api.ChatRequest{Message: message, SessionID: sessionID}))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var out api.ChatResponse
		Expect(json.Unmarshal(body, &out)).To(Succeed())
		return out
	}

	upload := func(sessionID, name, content string) (*http.Response, []byte) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		Expect(err).NotTo(HaveOccurred())
		_, err = fw.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/document", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return do(req)
	}

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		reply = `{"response":"Hi there"}`
		prompts = nil

		inference = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Prompt string `json:"prompt"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			prompts = append(prompts, req.Prompt)
			w.WriteHeader(status)
			w.Write([]byte(reply))
		}))
		DeferCleanup(inference.Close)

		cfg = config.NewDefaultConfig()
		cfg.Inference.Endpoint = inference.URL + "/api/generate"
		cfg.Lookup.Disabled = true
		cfg.Storage.Provider = assistant.StorageMemory
		cfg.Speech.SynthCommand = ""
	})

	Describe("NewServer", func() {
		It("requires an assistant", func() {
			_, err := api.NewServer(api.Config{}, nil, session.NewManager(false), nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("with a running assistant", func() {
		BeforeEach(func() {
			build()
		})

		It("answers pings", func() {
			resp, body := do(httptest.NewRequest(http.MethodGet, "/ping", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(Equal(`"pong"`))
		})

		Describe("POST /v1/chat", func() {
			It("answers and creates a session", func() {
				out := chat("hello", "")

				Expect(out.OK).To(BeTrue())
				Expect(out.Answer).To(Equal("Hi there"))
				Expect(out.Status).To(Equal("answered"))
				Expect(out.SessionID).NotTo(BeEmpty())
				Expect(out.TurnID).NotTo(BeEmpty())
				Expect(out.AudioURL).To(BeEmpty())
				Expect(sessions.Len()).To(Equal(1))
				Expect(asst.Memory.Count(ctx)).To(Equal(1))
			})

			It("keeps using a given session", func() {
				first := chat("hello", "")
				second := chat("again", first.SessionID)

				Expect(second.SessionID).To(Equal(first.SessionID))
				Expect(sessions.Len()).To(Equal(1))
			})

			It("rejects an empty message", func() {
				resp, body := do(jsonRequest(http.MethodPost, "/v1/chat", api.ChatRequest{Message: "   "}))
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(string(body)).To(ContainSubstring("message is required"))
				Expect(prompts).To(BeEmpty())
			})

			It("rejects malformed bodies", func() {
				req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader("{"))
				req.Header.Set("Content-Type", "application/json")
				resp, _ := do(req)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})

			It("reports inference failures in the body", func() {
				status = http.StatusServiceUnavailable
				reply = "loading"

				out := chat("hello", "")

				Expect(out.OK).To(BeFalse())
				Expect(out.Status).To(Equal("server_failure"))
				Expect(out.StatusCode).To(Equal(http.StatusServiceUnavailable))
				Expect(out.Answer).To(ContainSubstring("503"))
				Expect(out.Error).NotTo(BeEmpty())
				Expect(asst.Memory.Count(ctx)).To(BeZero())
			})
		})

		Describe("documents", func() {
			It("uses the uploaded document in later prompts", func() {
				resp, body := upload("desk", "notes.md", "# Notes\nThe launch is on Friday.")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var doc api.DocumentResponse
				Expect(json.Unmarshal(body, &doc)).To(Succeed())
				Expect(doc.SessionID).To(Equal("desk"))
				Expect(doc.Document).To(Equal("notes.md"))
				Expect(doc.Chars).To(Equal(len("# Notes\nThe launch is on Friday.")))

				chat("when is the launch?", "desk")
				Expect(prompts).To(HaveLen(1))
				Expect(prompts[0]).To(HavePrefix("Document Context: # Notes\nThe launch is on Friday.\n"))
			})

			It("returns 422 for unreadable documents", func() {
				resp, body := upload("desk", "photo.png", "not text")
				Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))
				Expect(string(body)).To(ContainSubstring("could not read document"))
			})

			It("requires a file", func() {
				req := httptest.NewRequest(http.MethodPost, "/v1/sessions/desk/document", nil)
				resp, _ := do(req)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})

			It("clears the document", func() {
				upload("desk", "notes.txt", "some notes")

				resp, _ := do(httptest.NewRequest(http.MethodDelete, "/v1/sessions/desk/document", nil))
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

				sess, err := sessions.Get("desk")
				Expect(err).NotTo(HaveOccurred())
				name, text := sess.Document()
				Expect(name).To(BeEmpty())
				Expect(text).To(BeEmpty())
			})
		})

		Describe("PUT /v1/sessions/:id/voice", func() {
			It("toggles voice", func() {
				resp, body := do(jsonRequest(http.MethodPut, "/v1/sessions/desk/voice", api.VoiceRequest{Enabled: true}))
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var out api.VoiceResponse
				Expect(json.Unmarshal(body, &out)).To(Succeed())
				Expect(out).To(Equal(api.VoiceResponse{SessionID: "desk", Voice: true}))
			})
		})

		Describe("GET /v1/sessions/:id/history", func() {
			It("lists turns oldest first", func() {
				first := chat("one", "")
				chat("two", first.SessionID)

				resp, body := do(httptest.NewRequest(http.MethodGet, "/v1/sessions/"+first.SessionID+"/history", nil))
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var out api.HistoryResponse
				Expect(json.Unmarshal(body, &out)).To(Succeed())
				Expect(out.Count).To(Equal(2))
				Expect(out.Entries[0].UserText).To(Equal("one"))
				Expect(out.Entries[1].UserText).To(Equal("two"))
			})

			It("returns 404 for unknown sessions", func() {
				resp, _ := do(httptest.NewRequest(http.MethodGet, "/v1/sessions/nope/history", nil))
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})

			It("forgets deleted sessions", func() {
				out := chat("one", "")

				resp, _ := do(httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+out.SessionID, nil))
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
				Expect(sessions.Len()).To(BeZero())
			})
		})

		Describe("GET /v1/memory", func() {
			It("lists the newest records", func() {
				chat("one", "")
				chat("two", "")
				chat("three", "")

				resp, body := do(httptest.NewRequest(http.MethodGet, "/v1/memory?limit=2", nil))
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var out api.MemoryResponse
				Expect(json.Unmarshal(body, &out)).To(Succeed())
				Expect(out.Total).To(Equal(3))
				Expect(out.Count).To(Equal(2))
				Expect(out.Records[0].Question).To(Equal("three"))
				Expect(out.Records[1].Question).To(Equal("two"))
			})

			It("returns an empty list", func() {
				_, body := do(httptest.NewRequest(http.MethodGet, "/v1/memory", nil))
				Expect(string(body)).To(ContainSubstring(`"records":[]`))
			})

			It("rejects bad limits", func() {
				resp, _ := do(httptest.NewRequest(http.MethodGet, "/v1/memory?limit=0", nil))
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		It("serves metrics", func() {
			chat("hello", "")

			resp, body := do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring(`parley_turns_total{status="answered"} 1`))
			Expect(string(body)).To(ContainSubstring(`parley_memory_writes_total{outcome="ok"} 1`))
		})

		It("reports audio as disabled without a speaker", func() {
			resp, _ := do(httptest.NewRequest(http.MethodGet, "/v1/audio/0b9a2bb2-48a1-4a6c-9d1f-0ab3d0c2a7e1.wav", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("with speech", func() {
		BeforeEach(func() {
			if _, err := exec.LookPath("touch"); err != nil {
				Skip("touch not available")
			}
			cfg.Speech.SynthCommand = "touch {output}"
			build()
		})

		It("returns and serves an audio artifact", func() {
			do(jsonRequest(http.MethodPut, "/v1/sessions/desk/voice", api.VoiceRequest{Enabled: true}))
			out := chat("hello", "desk")
			Expect(out.AudioURL).To(HavePrefix("/v1/audio/"))

			resp, _ := do(httptest.NewRequest(http.MethodGet, out.AudioURL, nil))
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("does not speak for sessions with voice off", func() {
			out := chat("hello", "quiet")
			Expect(out.AudioURL).To(BeEmpty())
		})

		It("rejects artifact names that are not speech artifacts", func() {
			resp, _ := do(httptest.NewRequest(http.MethodGet, "/v1/audio/config.toml", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for missing artifacts", func() {
			resp, _ := do(httptest.NewRequest(http.MethodGet, "/v1/audio/0b9a2bb2-48a1-4a6c-9d1f-0ab3d0c2a7e1.wav", nil))
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
