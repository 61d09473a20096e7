package api

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/session"
)

const (
	defaultMemoryLimit = 20
	maxMemoryLimit     = 500

	// speechWait bounds how long a chat response waits for its audio.
	speechWait = 30 * time.Second
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the result of a chat turn.
type ChatResponse struct {
	SessionID   string `json:"session_id"`
	TurnID      string `json:"turn_id"`
	Answer      string `json:"answer"`
	Status      string `json:"status"`
	OK          bool   `json:"ok"`
	StatusCode  int    `json:"status_code,omitempty"`
	Error       string `json:"error,omitempty"`
	LookupTopic string `json:"lookup_topic,omitempty"`
	AudioURL    string `json:"audio_url,omitempty"`
}

// DocumentResponse describes a session's new document context.
type DocumentResponse struct {
	SessionID string `json:"session_id"`
	Document  string `json:"document"`
	Chars     int    `json:"chars"`
	Pages     int    `json:"pages"`
}

// VoiceRequest is the body of PUT /v1/sessions/:id/voice.
type VoiceRequest struct {
	Enabled bool `json:"enabled"`
}

// VoiceResponse reports a session's voice toggle.
type VoiceResponse struct {
	SessionID string `json:"session_id"`
	Voice     bool   `json:"voice"`
}

// HistoryResponse contains the turns of a session, oldest first.
type HistoryResponse struct {
	SessionID string          `json:"session_id"`
	Document  string          `json:"document,omitempty"`
	Voice     bool            `json:"voice"`
	Count     int             `json:"count"`
	Entries   []session.Entry `json:"entries"`
}

// MemoryResponse lists remembered exchanges, newest first.
type MemoryResponse struct {
	Total   int             `json:"total"`
	Count   int             `json:"count"`
	Records []memory.Record `json:"records"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleChat runs one conversation turn.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is required"})
	}

	sess, created := s.sessions.GetOrCreate(req.SessionID)
	if created {
		s.logger.Debug("session created", zap.String("session_id", sess.ID))
	}

	ctx := c.UserContext()
	reply := s.assistant.Respond(ctx, sess, req.Message)
	turn := reply.Turn

	resp := ChatResponse{
		SessionID:   sess.ID,
		TurnID:      turn.ID,
		Answer:      turn.Answer,
		Status:      string(turn.Status),
		OK:          turn.OK(),
		StatusCode:  turn.StatusCode,
		LookupTopic: turn.LookupTopic,
	}
	if turn.Err != nil {
		resp.Error = turn.Err.Error()
	}

	if reply.Speech != nil {
		waitCtx, cancel := context.WithTimeout(ctx, speechWait)
		defer cancel()
		if _, err := reply.Speech.Wait(waitCtx); err == nil {
			resp.AudioURL = "/v1/audio/" + reply.Speech.ArtifactName()
		} else {
			s.logger.Debug("speech unavailable for turn",
				zap.String("turn_id", turn.ID),
				zap.Error(err),
			)
		}
	}

	return c.JSON(resp)
}

// handleUploadDocument replaces a session's document context with the
// uploaded file.
func (s *Server) handleUploadDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "file is required"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "could not open upload"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "could not read upload"})
	}

	sess, _ := s.sessions.GetOrCreate(c.Params("id"))
	doc, err := s.assistant.LoadDocumentBytes(c.UserContext(), sess, fh.Filename, data)
	if err != nil {
		s.logger.Debug("document extraction failed",
			zap.String("session_id", sess.ID),
			zap.String("file", fh.Filename),
			zap.Error(err),
		)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: "could not read document: " + err.Error()})
	}

	return c.JSON(DocumentResponse{
		SessionID: sess.ID,
		Document:  doc.Name,
		Chars:     len([]rune(doc.Text)),
		Pages:     doc.Pages,
	})
}

// handleClearDocument removes a session's document context.
func (s *Server) handleClearDocument(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	sess.ClearDocument()
	return c.SendStatus(fiber.StatusNoContent)
}

// handleSetVoice flips a session's voice toggle.
func (s *Server) handleSetVoice(c *fiber.Ctx) error {
	var req VoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	sess, _ := s.sessions.GetOrCreate(c.Params("id"))
	sess.SetVoice(req.Enabled)

	return c.JSON(VoiceResponse{SessionID: sess.ID, Voice: sess.Voice()})
}

// handleHistory returns a session's turns.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	entries := sess.History()
	name, _ := sess.Document()

	return c.JSON(HistoryResponse{
		SessionID: sess.ID,
		Document:  name,
		Voice:     sess.Voice(),
		Count:     len(entries),
		Entries:   entries,
	})
}

// handleDeleteSession forgets a session.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	s.sessions.Delete(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

// handleListMemory returns the newest memory records.
func (s *Server) handleListMemory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultMemoryLimit)
	if limit <= 0 || limit > maxMemoryLimit {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "limit must be between 1 and 500"})
	}

	ctx := c.UserContext()
	records, err := s.assistant.Memory.List(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list memory", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list memory"})
	}

	total, err := s.assistant.Memory.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count memory", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to count memory"})
	}

	if records == nil {
		records = []memory.Record{}
	}

	return c.JSON(MemoryResponse{
		Total:   total,
		Count:   len(records),
		Records: records,
	})
}

// handleAudio serves a synthesized speech artifact.
func (s *Server) handleAudio(c *fiber.Ctx) error {
	if s.assistant.Speaker == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "speech is not enabled"})
	}

	path, err := s.assistant.Speaker.ArtifactPath(c.Params("name"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "audio not found"})
	}

	return c.SendFile(path)
}
