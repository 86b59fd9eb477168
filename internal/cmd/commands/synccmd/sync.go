package synccmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/contentsync/internal/cmd/base"
	"github.com/hashicorp-forge/contentsync/pkg/content"
	"github.com/hashicorp-forge/contentsync/pkg/syncengine"
)

type Command struct {
	*base.Command

	flagConfig  string
	flagAppID   int64
	flagType    string
	flagIDs     string
	flagClear   bool
	flagVerbose bool
}

func (c *Command) Synopsis() string {
	return "Sync content items into the search indexes"
}

func (c *Command) Help() string {
	return `Usage: contentsync sync [options]

  This command pushes content items into their search indexes. Published
  items of searchable types are upserted, every other item is removed.
  Items are processed one at a time with progress reporting; failed items
  are reported at the end and make the command exit with status 1.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("sync", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to contentsync config file",
	)
	f.Int64Var(
		&c.flagAppID, "app", 0,
		"Only sync items of the application with this id.",
	)
	f.StringVar(
		&c.flagType, "type", "",
		"Only sync items of this type identifier.",
	)
	f.StringVar(
		&c.flagIDs, "ids", "",
		"Comma separated list of item ids to sync.",
	)
	f.BoolVar(
		&c.flagClear, "clear", false,
		"Clear each index before syncing (full rebuild).",
	)
	f.BoolVar(
		&c.flagVerbose, "verbose", false,
		"Print every item and enable debug logging.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	ids, err := parseIDs(c.flagIDs)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing ids: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := c.NewEnv(ctx, c.flagConfig, c.flagVerbose)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	defer env.Close()

	if c.flagClear {
		ui.Warn("Indexes are cleared before syncing")
	}

	runner := syncengine.NewRunner(syncengine.RunnerConfig{
		Factory:  env.Factory,
		Source:   env.Store,
		Clear:    c.flagClear,
		Progress: NewUIProgress(ui, c.flagVerbose),
		Logger:   c.Log,
	})

	res, err := runner.Run(ctx, syncengine.Filter{
		AppID:  c.flagAppID,
		TypeID: c.flagType,
		IDs:    ids,
	})

	ui.Info(fmt.Sprintf("Sync complete: %d synced, %d failed, %d indexes, %d types skipped",
		res.Synced, res.Failed, res.Targets, res.Skipped))
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return 0
}

func parseIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid item id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// UIProgress reports runner progress on the command UI.
type UIProgress struct {
	ui      cli.Ui
	verbose bool

	total int
	done  int
}

// NewUIProgress creates a UIProgress. In verbose mode every item is printed.
func NewUIProgress(ui cli.Ui, verbose bool) *UIProgress {
	return &UIProgress{ui: ui, verbose: verbose}
}

func (p *UIProgress) Start(target syncengine.Target, total int) {
	p.total, p.done = total, 0
	p.ui.Info(fmt.Sprintf("Syncing %d %s items of %q into %q",
		total, target.Type.Identifier, target.Application.Name, target.Index))
}

func (p *UIProgress) Step(target syncengine.Target, item *content.Item, err error) {
	p.done++
	if err != nil {
		p.ui.Error(fmt.Sprintf("  item %d (%s): %v", item.ID, item.Name, err))
	} else if p.verbose {
		p.ui.Output(fmt.Sprintf("  item %d (%s): %s", item.ID, item.Name, item.State))
	}

	if p.done%100 == 0 && p.done < p.total {
		p.ui.Info(fmt.Sprintf("Progress: %d/%d items (%.1f%%)",
			p.done, p.total, float64(p.done)/float64(p.total)*100))
	}
}

func (p *UIProgress) Done(target syncengine.Target) {
	p.ui.Info(fmt.Sprintf("Finished %q: %d items", target.Index, p.done))
}
