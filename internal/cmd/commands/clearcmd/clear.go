package clearcmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/contentsync/internal/cmd/base"
	"github.com/hashicorp-forge/contentsync/pkg/syncengine"
)

type Command struct {
	*base.Command

	flagConfig  string
	flagAppID   int64
	flagType    string
	flagVerbose bool
}

func (c *Command) Synopsis() string {
	return "Remove every document from the search indexes"
}

func (c *Command) Help() string {
	return `Usage: contentsync clear [options]

  This command empties the search indexes of the configured content types.
  Run "contentsync sync" afterwards to rebuild them.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("clear", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to contentsync config file",
	)
	f.Int64Var(
		&c.flagAppID, "app", 0,
		"Only clear the indexes of the application with this id.",
	)
	f.StringVar(
		&c.flagType, "type", "",
		"Only clear the index of this type identifier.",
	)
	f.BoolVar(
		&c.flagVerbose, "verbose", false,
		"Enable debug logging.",
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

	ctx := context.Background()
	env, err := c.NewEnv(ctx, c.flagConfig, c.flagVerbose)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	defer env.Close()

	runner := syncengine.NewRunner(syncengine.RunnerConfig{
		Factory: env.Factory,
		Source:  env.Store,
		Logger:  c.Log,
	})

	cleared, err := runner.Clear(ctx, syncengine.Filter{AppID: c.flagAppID, TypeID: c.flagType})
	for _, name := range cleared {
		ui.Info(fmt.Sprintf("Cleared index %q", name))
	}
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	if len(cleared) == 0 {
		ui.Warn("No configured index matched")
	}
	return 0
}
