package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var (
	askToolName    = "ask"
	askDescription = "Ask parley a question. Parley answers with a local model, optionally grounded on an encyclopedia summary when the message contains the word \"search\" and on the document uploaded to the session. Pass session_id to continue a session started over the HTTP API."
)

// AskInput represents the input arguments for the MCP ask tool.
type AskInput struct {
	Message   string `json:"message" jsonschema:"the question or message for the assistant"`
	SessionID string `json:"session_id,omitempty" jsonschema:"optional session to use for document context and history"`
}

// AskOutput represents the structured output of an ask call.
type AskOutput struct {
	SessionID string `json:"session_id"`
	TurnID    string `json:"turn_id"`
	Answer    string `json:"answer"`
	Status    string `json:"status"`
	OK        bool   `json:"ok"`
}

// handleAsk processes an ask request via MCP.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Message) == "" {
		return errorResult("message is required"), AskOutput{}, nil
	}

	sess, created := s.config.Sessions.GetOrCreate(input.SessionID)
	if created {
		s.config.Logger.Debug("mcp session created", zap.String("session_id", sess.ID))
	}

	turn := s.config.Turns.HandleTurn(ctx, sess, input.Message)
	output := AskOutput{
		SessionID: sess.ID,
		TurnID:    turn.ID,
		Answer:    turn.Answer,
		Status:    string(turn.Status),
		OK:        turn.OK(),
	}

	if !turn.OK() {
		return errorResult(turn.Answer), output, nil
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), AskOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
