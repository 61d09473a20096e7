// Package askcmder provides the ask command, a single question and answer.
package askcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/parley/cmd/parley/bootstrap"
	chatcmder "github.com/papercomputeco/parley/cmd/parley/chat"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/session"
)

type askCommander struct {
	flags        chatcmder.FlagValues
	documentPath string
	jsonOut      bool

	out    io.Writer
	env    *bootstrap.Env
	logger *zap.Logger
}

const askLongDesc string = `Ask parley a single question and print the answer.

The question goes through the same pipeline as the chat: an encyclopedia
lookup when it contains "search", the optional --document as context, and a
memory log entry when the model answers. The command exits non-zero when the
model could not be reached or returned an unusable reply.

Examples:
  parley ask "what is a goroutine?"
  parley ask --document report.pdf "summarize the findings"
  parley ask --json "search Alan Turing"`

const askShortDesc string = "Ask a single question"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap.Load(cmd, chatcmder.Flags)
			if err != nil {
				return err
			}
			defer env.Close()

			cmder.env = env
			cmder.logger = env.Logger
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context(), strings.Join(args, " "))
		},
	}

	chatcmder.AddFlags(cmd, &cmder.flags)
	cmd.Flags().StringVar(&cmder.documentPath, "document", "", "Document to use as context (.pdf, .txt, .md)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the full turn as JSON")

	return cmd
}

func (c *askCommander) run(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("message is empty")
	}

	a, err := c.env.NewAssistant(ctx, true, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := session.New(c.env.Config.Speech.Enabled)
	if c.documentPath != "" {
		if _, err := a.LoadDocument(ctx, sess, c.documentPath); err != nil {
			return fmt.Errorf("could not read document: %w", err)
		}
	}

	reply := a.Respond(ctx, sess, message)
	turn := reply.Turn

	if c.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(turn); err != nil {
			return fmt.Errorf("encoding turn: %w", err)
		}
	} else {
		fmt.Fprintln(c.out, turn.Answer)
	}

	if reply.Speech != nil {
		if _, err := reply.Speech.Wait(ctx); err != nil {
			c.logger.Warn("speech failed", zap.Error(err))
		}
	}

	if turn.PersistErr != nil {
		cliui.Systemf(c.out, "answer was not saved to memory: %v", turn.PersistErr)
	}

	if !turn.OK() {
		return fmt.Errorf("turn failed: %s", turn.Status)
	}
	return nil
}
