package main

import (
	"os"

	"github.com/hashicorp-forge/contentsync/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
