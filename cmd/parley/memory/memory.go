// Package memorycmder provides commands for reading the memory log.
package memorycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/cmd/parley/bootstrap"
	"github.com/papercomputeco/parley/pkg/assistant"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/utils"
)

// flags selects the memory driver.
var flags = []string{
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgres,
}

const memoryLongDesc string = `Inspect the memory log.

Every answered turn appends one question/answer record. The log is never
edited by parley; these commands only read it.

Examples:
  parley memory list
  parley memory list --limit 5 --json
  parley memory count --sqlite ./parley.db`

const memoryShortDesc string = "Inspect the memory log"

func NewMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: memoryShortDesc,
		Long:  memoryLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newCountCmd())

	return cmd
}

type storageFlags struct {
	storage  string
	sqlite   string
	postgres string
}

func (f *storageFlags) add(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &f.storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &f.sqlite)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &f.postgres)
}

// withDriver opens the configured driver for the duration of fn.
func withDriver(cmd *cobra.Command, fn func(ctx context.Context, d memory.Driver) error) error {
	env, err := bootstrap.Load(cmd, flags)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := cmd.Context()
	d, err := assistant.NewMemoryDriver(ctx, env.Config.Storage)
	if err != nil {
		return err
	}
	defer d.Close()

	return fn(ctx, d)
}

type listCommander struct {
	storageFlags
	limit   int
	jsonOut bool
	out     io.Writer
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the newest memory records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", cmder.limit)
			}
			cmder.out = cmd.OutOrStdout()
			return withDriver(cmd, cmder.run)
		},
	}

	cmder.add(cmd)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of records to show")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print records as JSON")

	return cmd
}

func (c *listCommander) run(ctx context.Context, d memory.Driver) error {
	records, err := d.List(ctx, c.limit)
	if err != nil {
		return fmt.Errorf("listing memory: %w", err)
	}

	if c.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []memory.Record{}
		}
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintf(c.out, "  %s No memory records yet.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	for _, r := range records {
		fmt.Fprintf(c.out, "  %s %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("#%d", r.ID)),
			cliui.DimStyle.Render(r.CreatedAt.Local().Format(time.DateTime)),
		)
		fmt.Fprintf(c.out, "    %s %s\n", cliui.KeyStyle.Render("Q:"), utils.Truncate(r.Question, 72))
		fmt.Fprintf(c.out, "    %s %s\n", cliui.KeyStyle.Render("A:"), cliui.ValueStyle.Render(utils.Truncate(r.Answer, 72)))
	}
	return nil
}

type countCommander struct {
	storageFlags
	out io.Writer
}

func newCountCmd() *cobra.Command {
	cmder := &countCommander{}

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of memory records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return withDriver(cmd, cmder.run)
		},
	}

	cmder.add(cmd)

	return cmd
}

func (c *countCommander) run(ctx context.Context, d memory.Driver) error {
	n, err := d.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting memory: %w", err)
	}
	fmt.Fprintln(c.out, strconv.Itoa(n))
	return nil
}
