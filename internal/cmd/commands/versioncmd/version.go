package versioncmd

import (
	"github.com/hashicorp-forge/contentsync/internal/cmd/base"
	"github.com/hashicorp-forge/contentsync/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the contentsync version"
}

func (c *Command) Help() string {
	return "Usage: contentsync version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output("contentsync " + version.String())
	return 0
}
