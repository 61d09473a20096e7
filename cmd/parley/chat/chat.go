// Package chatcmder provides the chat command for an interactive terminal
// conversation with parley.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/papercomputeco/parley/cmd/parley/bootstrap"
	"github.com/papercomputeco/parley/pkg/assistant"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/document"
	"github.com/papercomputeco/parley/pkg/session"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// Flags shared with the tui and ask commands.
var Flags = []string{
	config.FlagModel,
	config.FlagEndpoint,
	config.FlagTimeout,
	config.FlagNoLookup,
	config.FlagVoice,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagEventsProvider,
	config.FlagBrokers,
}

// AddFlags registers Flags on cmd, writing into fv.
func AddFlags(cmd *cobra.Command, fv *FlagValues) {
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &fv.Model)
	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &fv.Endpoint)
	config.AddIntFlag(cmd, config.Flags, config.FlagTimeout, &fv.Timeout)
	config.AddBoolFlag(cmd, config.Flags, config.FlagNoLookup, &fv.NoLookup)
	config.AddBoolFlag(cmd, config.Flags, config.FlagVoice, &fv.Voice)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &fv.Storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &fv.SQLite)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &fv.Postgres)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &fv.EventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagBrokers, &fv.Brokers)
}

// FlagValues holds the parsed conversation flags. Values reach the config
// through viper, so commands rarely read them directly.
type FlagValues struct {
	Model          string
	Endpoint       string
	Timeout        int
	NoLookup       bool
	Voice          bool
	Storage        string
	SQLite         string
	Postgres       string
	EventsProvider string
	Brokers        string
}

type chatCommander struct {
	flags        FlagValues
	documentPath string
	watch        bool

	in  io.Reader
	out io.Writer

	env       *bootstrap.Env
	assistant *assistant.Assistant
	session   *session.Session
	logger    *zap.Logger
}

const chatLongDesc string = `Start an interactive chat with parley.

Every message is answered by the configured model. Messages containing the
word "search" are grounded on an encyclopedia summary of the rest of the
message. A document loaded with --document or /upload is added as context.

Commands inside the chat:
  /upload <path>    Use a PDF, text or markdown file as document context
  /clear            Drop the document context
  /voice on|off     Speak replies aloud
  /history          Show this session's turns
  /exit             Quit (Ctrl+D also works)

Examples:
  parley chat
  parley chat --model llama3.2:latest --voice
  parley chat --document notes.pdf --watch`

const chatShortDesc string = "Interactive chat in the terminal"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := bootstrap.Load(cmd, Flags)
			if err != nil {
				return err
			}
			defer env.Close()

			cmder.env = env
			cmder.logger = env.Logger
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	AddFlags(cmd, &cmder.flags)
	cmd.Flags().StringVar(&cmder.documentPath, "document", "", "Document to use as context (.pdf, .txt, .md)")
	cmd.Flags().BoolVar(&cmder.watch, "watch", false, "Reload --document when it changes on disk")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := c.env.NewAssistant(ctx, true, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	c.assistant = a
	c.session = session.New(c.env.Config.Speech.Enabled)

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(c.env.Config.Inference.Model),
	)

	if c.documentPath != "" {
		c.upload(ctx, c.documentPath)
		if c.watch {
			c.startWatcher(ctx)
		}
	}

	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for {
		fmt.Fprintf(c.out, "%s> ", cliui.UserLabel)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := c.command(ctx, input); quit {
				break
			}
			continue
		}

		c.ask(ctx, input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// ask runs one turn, animating a spinner on terminals.
func (c *chatCommander) ask(ctx context.Context, input string) {
	pending := c.assistant.Orchestrator.Submit(ctx, c.session, input)
	if c.interactive() {
		cliui.Spin(c.out, "thinking", pending.Done())
	}

	turn, err := pending.Wait(ctx)
	if err != nil {
		return
	}

	cliui.Answer(c.out, turn.Answer, turn.OK(), c.interactive())
	if turn.PersistErr != nil {
		cliui.Systemf(c.out, "answer was not saved to memory: %v", turn.PersistErr)
	}
	c.assistant.SpeakTurn(c.session, turn)
}

// command handles a slash command and reports whether to quit.
func (c *chatCommander) command(ctx context.Context, input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return true

	case "/upload":
		if arg == "" {
			cliui.Systemf(c.out, "usage: /upload <path>")
			return false
		}
		c.upload(ctx, arg)

	case "/clear":
		c.session.ClearDocument()
		cliui.Systemf(c.out, "document context cleared")

	case "/voice":
		switch arg {
		case "on":
			c.session.SetVoice(true)
		case "off":
			c.session.SetVoice(false)
		case "":
			c.session.SetVoice(!c.session.Voice())
		default:
			cliui.Systemf(c.out, "usage: /voice on|off")
			return false
		}
		if c.session.Voice() && c.assistant.Speaker == nil {
			cliui.Systemf(c.out, "voice on, but no speech synthesizer is available")
			return false
		}
		cliui.Systemf(c.out, "voice %s", onOff(c.session.Voice()))

	case "/history":
		c.printHistory()

	case "/help":
		fmt.Fprintln(c.out, chatLongDesc)

	default:
		cliui.Systemf(c.out, "unknown command %s (try /help)", name)
	}

	return false
}

func (c *chatCommander) upload(ctx context.Context, path string) {
	doc, err := c.assistant.LoadDocument(ctx, c.session, path)
	if err != nil {
		cliui.Systemf(c.out, "could not read document: %v", err)
		return
	}
	cliui.Systemf(c.out, "loaded %s (%d characters)", doc.Name, len([]rune(doc.Text)))
}

func (c *chatCommander) startWatcher(ctx context.Context) {
	w, err := document.NewWatcher(c.assistant.Extractor, c.documentPath)
	if err != nil {
		cliui.Systemf(c.out, "could not watch document: %v", err)
		return
	}

	go func() {
		defer w.Close()
		err := w.Run(ctx, func(doc document.Document, err error) {
			if err != nil {
				c.logger.Warn("document reload failed", zap.String("path", c.documentPath), zap.Error(err))
				return
			}
			c.session.SetDocument(doc.Name, doc.Text)
			c.logger.Info("document reloaded", zap.String("path", c.documentPath))
		})
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("document watcher stopped", zap.Error(err))
		}
	}()
}

func (c *chatCommander) printHistory() {
	history := c.session.History()
	if len(history) == 0 {
		cliui.Systemf(c.out, "no turns yet")
		return
	}

	for _, e := range history {
		mark := cliui.SuccessMark
		if !e.OK {
			mark = cliui.FailMark
		}
		fmt.Fprintf(c.out, "  %s %s\n", mark, e.UserText)
		fmt.Fprintf(c.out, "    %s\n", cliui.DimStyle.Render(e.Answer))
	}
}

// interactive reports whether output goes to a terminal.
func (c *chatCommander) interactive() bool {
	f, ok := c.out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
