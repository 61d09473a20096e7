package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Placeholders recognised in command templates.
const (
	PlaceholderText   = "{text}"
	PlaceholderOutput = "{output}"
	PlaceholderFile   = "{file}"
)

// Synthesizer renders text into an audio file at outPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// Player plays an audio file to completion.
type Player interface {
	Play(ctx context.Context, path string) error
}

// CommandSynthesizer runs an external TTS program such as espeak-ng.
// The template is split on whitespace; placeholders are substituted per
// argument so text never passes through a shell.
type CommandSynthesizer struct {
	template string
}

// NewCommandSynthesizer validates template and returns a synthesizer.
func NewCommandSynthesizer(template string) (*CommandSynthesizer, error) {
	if !strings.Contains(template, PlaceholderOutput) {
		return nil, fmt.Errorf("synth command %q must contain %s", template, PlaceholderOutput)
	}
	if _, _, err := expandCommand(template, nil); err != nil {
		return nil, err
	}
	return &CommandSynthesizer{template: template}, nil
}

// Synthesize runs the command and waits for it to finish.
func (s *CommandSynthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	name, args, err := expandCommand(s.template, map[string]string{
		PlaceholderText:   text,
		PlaceholderOutput: outPath,
	})
	if err != nil {
		return err
	}
	return run(ctx, name, args)
}

// CommandPlayer runs an external audio player such as aplay.
type CommandPlayer struct {
	template string
}

// NewCommandPlayer validates template and returns a player.
func NewCommandPlayer(template string) (*CommandPlayer, error) {
	if !strings.Contains(template, PlaceholderFile) {
		return nil, fmt.Errorf("player command %q must contain %s", template, PlaceholderFile)
	}
	if _, _, err := expandCommand(template, nil); err != nil {
		return nil, err
	}
	return &CommandPlayer{template: template}, nil
}

// Play runs the command and waits for playback to finish.
func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	name, args, err := expandCommand(p.template, map[string]string{
		PlaceholderFile: path,
	})
	if err != nil {
		return err
	}
	return run(ctx, name, args)
}

func expandCommand(template string, vars map[string]string) (string, []string, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return "", nil, errors.New("empty command template")
	}

	for i, f := range fields {
		for k, v := range vars {
			f = strings.ReplaceAll(f, k, v)
		}
		fields[i] = f
	}

	return fields[0], fields[1:], nil
}

func run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("running %s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("running %s: %w", name, err)
	}
	return nil
}
