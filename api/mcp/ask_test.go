package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	parleylogger "github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/orchestrator"
	"github.com/papercomputeco/parley/pkg/session"
)

type recordingTurns struct {
	texts    []string
	sessions []*session.Session
	status   orchestrator.Status
	answer   string
}

func (r *recordingTurns) HandleTurn(_ context.Context, sess *session.Session, text string) orchestrator.Turn {
	r.texts = append(r.texts, text)
	r.sessions = append(r.sessions, sess)
	return orchestrator.Turn{
		ID:        "turn-1",
		SessionID: sess.ID,
		UserText:  text,
		Answer:    r.answer,
		Status:    r.status,
	}
}

var _ = Describe("Ask tool", func() {
	var (
		s        *Server
		turns    *recordingTurns
		sessions *session.Manager
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		turns = &recordingTurns{status: orchestrator.StatusAnswered, answer: "Paris."}
		sessions = session.NewManager(false)

		var err error
		s, err = NewServer(Config{
			Turns:    turns,
			Sessions: sessions,
			Logger:   parleylogger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	textOf := func(result *mcp.CallToolResult) string {
		Expect(result.Content).To(HaveLen(1))
		text, ok := result.Content[0].(*mcp.TextContent)
		Expect(ok).To(BeTrue())
		return text.Text
	}

	It("rejects an empty message", func() {
		result, _, err := s.handleAsk(ctx, nil, AskInput{Message: "  "})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
		Expect(textOf(result)).To(Equal("message is required"))
		Expect(turns.texts).To(BeEmpty())
	})

	It("answers in a new session", func() {
		result, output, err := s.handleAsk(ctx, nil, AskInput{Message: "capital of France?"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeFalse())

		Expect(output.Answer).To(Equal("Paris."))
		Expect(output.OK).To(BeTrue())
		Expect(output.Status).To(Equal("answered"))
		Expect(output.SessionID).NotTo(BeEmpty())
		Expect(sessions.Len()).To(Equal(1))

		var decoded AskOutput
		Expect(json.Unmarshal([]byte(textOf(result)), &decoded)).To(Succeed())
		Expect(decoded).To(Equal(output))
	})

	It("reuses a named session", func() {
		existing, _ := sessions.GetOrCreate("desk")

		_, output, err := s.handleAsk(ctx, nil, AskInput{Message: "hi", SessionID: "desk"})
		Expect(err).NotTo(HaveOccurred())
		Expect(output.SessionID).To(Equal("desk"))
		Expect(turns.sessions).To(ConsistOf(BeIdenticalTo(existing)))
	})

	It("reports failed turns as tool errors", func() {
		turns.status = orchestrator.StatusServerFailure
		turns.answer = "Inference server returned status 500: boom"

		result, output, err := s.handleAsk(ctx, nil, AskInput{Message: "hi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.IsError).To(BeTrue())
		Expect(textOf(result)).To(ContainSubstring("status 500"))
		Expect(output.OK).To(BeFalse())
	})
})
