package command

import (
	"strings"

	"github.com/hashicorp/cli"
)

func VersionCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return &VersionCommand{Ui: ui}, nil
	}
}

type VersionCommand struct {
	Ui cli.Ui
}

func (c *VersionCommand) Help() string {
	return strings.TrimSpace(`
Usage: stache version

  Prints the stache version.
`)
}

func (c *VersionCommand) Synopsis() string {
	return "Prints the stache version"
}

func (c *VersionCommand) Run(_ []string) int {
	c.Ui.Output("stache v" + Version)
	return 0
}
