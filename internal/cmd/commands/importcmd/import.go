package importcmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp-forge/contentsync/internal/cmd/base"
	"github.com/hashicorp-forge/contentsync/pkg/store"
)

type Command struct {
	*base.Command

	flagConfig  string
	flagMigrate bool
	flagVerbose bool
}

func (c *Command) Synopsis() string {
	return "Load a YAML content bundle into the content database"
}

func (c *Command) Help() string {
	return `Usage: contentsync import [options] <file.yaml>

  This command upserts the applications, categories, items and menu routes
  of a YAML bundle into the content database. It is meant for local
  development and tests.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("import", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to contentsync config file",
	)
	f.BoolVar(
		&c.flagMigrate, "migrate", true,
		"Create or update the content tables before importing.",
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
	if flags.NArg() != 1 {
		ui.Error("exactly one fixture file is required")
		return 1
	}

	cfg, err := c.LoadConfig(c.flagConfig, c.flagVerbose)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	db, _, err := c.OpenStore(cfg)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if c.flagMigrate {
		if err := store.Migrate(db); err != nil {
			ui.Error(err.Error())
			return 1
		}
	}

	f, err := os.Open(flags.Arg(0))
	if err != nil {
		ui.Error(fmt.Sprintf("error opening fixture file: %v", err))
		return 1
	}
	defer f.Close()

	res, err := store.ImportFixtures(context.Background(), db, f)
	if err != nil {
		ui.Error(fmt.Sprintf("error importing fixtures: %v", err))
		return 1
	}

	ui.Info(fmt.Sprintf("Imported %d applications, %d categories, %d items and %d menu routes",
		res.Applications, res.Categories, res.Items, res.MenuRoutes))
	return 0
}
