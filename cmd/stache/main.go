package main

import (
	"os"

	"github.com/hashicorp/cli"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/stache/command"
)

func main() {
	ui := &cli.ConcurrentUi{Ui: &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "stache",
		Level:  hclog.Info,
		Output: &cli.UiWriter{Ui: ui},
	})

	c := cli.NewCLI("stache", command.Version)
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"render":  command.RenderCommandFactory(ui, logger),
		"version": command.VersionCommandFactory(ui),
	}

	exitStatus, err := c.Run()
	if err != nil {
		logger.Error("command exited with non-zero status", "status", exitStatus, "error", err)
	}
	os.Exit(exitStatus)
}
