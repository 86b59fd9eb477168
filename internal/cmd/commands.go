package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/contentsync/internal/cmd/base"
	"github.com/hashicorp-forge/contentsync/internal/cmd/commands/clearcmd"
	"github.com/hashicorp-forge/contentsync/internal/cmd/commands/consume"
	"github.com/hashicorp-forge/contentsync/internal/cmd/commands/importcmd"
	"github.com/hashicorp-forge/contentsync/internal/cmd/commands/synccmd"
	"github.com/hashicorp-forge/contentsync/internal/cmd/commands/versioncmd"
)

// Commands is the mapping of all available contentsync commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"clear": func() (cli.Command, error) {
			return &clearcmd.Command{Command: b}, nil
		},
		"consume": func() (cli.Command, error) {
			return &consume.Command{Command: b}, nil
		},
		"import": func() (cli.Command, error) {
			return &importcmd.Command{Command: b}, nil
		},
		"sync": func() (cli.Command, error) {
			return &synccmd.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &versioncmd.Command{Command: b}, nil
		},
	}
}
