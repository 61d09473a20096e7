// Package tuicmder provides the tui command, a full screen chat.
package tuicmder

import (
	"context"
	"os"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/cmd/parley/bootstrap"
	chatcmder "github.com/papercomputeco/parley/cmd/parley/chat"
	"github.com/papercomputeco/parley/pkg/session"
)

type tuiCommander struct {
	flags        chatcmder.FlagValues
	documentPath string
	env          *bootstrap.Env
}

const tuiLongDesc string = `Start a full screen chat with parley.

Works like "parley chat" with a scrollable conversation log, a status line
and keyboard shortcuts:
  enter       Send the message
  ctrl+v      Toggle spoken replies
  pgup/pgdn   Scroll the conversation
  esc         Quit

The /upload <path>, /clear, /voice and /exit commands are also available.

Examples:
  parley tui
  parley tui --document notes.pdf --voice`

const tuiShortDesc string = "Full screen chat"

func NewTUICmd() *cobra.Command {
	cmder := &tuiCommander{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: tuiShortDesc,
		Long:  tuiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := bootstrap.Load(cmd, chatcmder.Flags)
			if err != nil {
				return err
			}
			defer env.Close()

			cmder.env = env
			return cmder.run(cmd.Context())
		},
	}

	chatcmder.AddFlags(cmd, &cmder.flags)
	cmd.Flags().StringVar(&cmder.documentPath, "document", "", "Document to use as context (.pdf, .txt, .md)")

	return cmd
}

func (c *tuiCommander) run(ctx context.Context) error {
	// Match the color profile to the terminal the program draws on.
	lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())

	a, err := c.env.NewAssistant(ctx, true, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := session.New(c.env.Config.Speech.Enabled)
	model := newChatModel(ctx, a, sess, c.env.Config.Inference.Model)

	var initial []bubbletea.Cmd
	if c.documentPath != "" {
		initial = append(initial, loadDocumentCmd(ctx, a, sess, c.documentPath))
	}
	model.initial = initial

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err = program.Run()
	return err
}
