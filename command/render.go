package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/cli"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/stache"
	"github.com/hashicorp/stache/config"
	"github.com/hashicorp/stache/events"
)

func RenderCommandFactory(ui cli.Ui, logger hclog.Logger) cli.CommandFactory {
	return func() (cli.Command, error) {
		meta := Meta{
			Ui:     ui,
			logger: logger,
		}
		return &RenderCommand{Meta: meta}, nil
	}
}

type RenderCommand struct {
	Meta
}

func (c *RenderCommand) Help() string {
	helpText := `
Usage: stache render [options] [target ...]

  Renders mustache templates with data read from JSON, YAML or JavaScript
  files, remote URLs or inline values, as declared in a task file. With no
  target arguments every target in the task file is rendered, in name order.

Render Options:

  -config=<path>
    Path to the TOML task file. Defaults to "stache.toml".

  -filter=<expression>
    Only render entries matching the boolean expression. The selectors dest,
    template and data are available, e.g. 'dest matches "html$"'.

General Options:
` + generalOptionsUsage()
	return strings.TrimSpace(helpText)
}

func (c *RenderCommand) Synopsis() string {
	return "Render templates declared in a task file"
}

func (c *RenderCommand) Run(args []string) int {
	var configPath, filter string
	flags := c.FlagSet("render")
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.StringVar(&configPath, "config", config.DefaultPath, "")
	flags.StringVar(&filter, "filter", "", "")

	if err := flags.Parse(args); err != nil {
		return 1
	}
	c.setup()

	cfg, err := config.FromPath(configPath)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error loading task file: %s", err))
		return 1
	}

	targets := flags.Args()
	if len(targets) == 0 {
		targets = cfg.TargetNames()
	}

	ctx := context.Background()
	status := 0
	for _, name := range targets {
		c.Ui.Output(fmt.Sprintf("Running %q target", "render:"+name))
		if err := c.runTarget(ctx, cfg, name, filter); err != nil {
			c.reportError(err)
			status = 1
		}
	}
	return status
}

// runTarget expands and renders one target. Configuration errors are
// returned before anything is rendered.
func (c *RenderCommand) runTarget(ctx context.Context, cfg *config.Config, name, filter string) error {
	opts, err := cfg.TargetOptions(name)
	if err != nil {
		return err
	}
	mappings, err := cfg.FileMappings(name)
	if err != nil {
		return err
	}
	entries, err := stache.Expand(mappings, opts.Defaults())
	if err != nil {
		return err
	}
	if entries, err = stache.FilterEntries(entries, filter); err != nil {
		return err
	}

	input, err := opts.SessionInput()
	if err != nil {
		return err
	}
	fetcher, err := stache.NewHTTPFetcher(opts.FetcherInput())
	if err != nil {
		return err
	}
	defer fetcher.Stop()
	input.Fetcher = fetcher
	input.EventHandler = c.eventHandler()

	session, err := stache.NewSession(input)
	if err != nil {
		return err
	}
	c.logger.Debug("rendering target", "target", name, "entries", len(entries))
	return stache.NewBatch(session).Run(ctx, entries)
}

// eventHandler writes render progress to the UI.
func (c *RenderCommand) eventHandler() events.EventHandler {
	return func(e events.Event) {
		switch e := e.(type) {
		case events.Trace:
			c.logger.Trace(e.Message, "id", e.ID)
		case events.FetchStart:
			c.Ui.Output(fmt.Sprintf("Fetching %s...", e.URL))
		case events.Output:
			c.Ui.Output(fmt.Sprintf("Output %s:", e.Dest))
		case events.Rendered:
			c.Ui.Output(renderedLine(e))
		case events.RenderFailed:
			c.Ui.Output(fmt.Sprintf("%s... %s", e.Dest, color.RedString("ERROR")))
		case events.DataWarning:
			c.Ui.Warn(fmt.Sprintf("Warning: %s %s", e.Path, e.Message))
		case events.NothingToDo:
			c.Ui.Warn("Nothing to do (are sources correctly specified?)")
		case events.BatchComplete:
			c.Ui.Output("")
			c.Ui.Output(fmt.Sprintf(">> Files successfully written: %d", e.Count))
		}
	}
}

func renderedLine(e events.Rendered) string {
	what := color.YellowString("non-object data")
	if e.Object {
		what = color.GreenString("%d-key object", e.Keys)
	}
	source := e.Source
	if source == "" {
		source = "inline data"
	}
	line := fmt.Sprintf(">> %s into %s from %s",
		what, color.CyanString(e.Template), color.CyanString(source))
	if !e.Changed {
		line += " (unchanged)"
	}
	return line
}

// reportError prints each failure. Stack lines, minus the message line, go
// to the debug log.
func (c *RenderCommand) reportError(err error) {
	errs := []error{err}
	if merr, ok := err.(*multierror.Error); ok {
		errs = merr.Errors
	}
	for _, e := range errs {
		c.Ui.Error(e.Error())
		lines := strings.Split(fmt.Sprintf("%+v", e), "\n")
		for i, line := range lines {
			if i == 0 || strings.TrimSpace(line) == "" {
				continue
			}
			c.logger.Debug(line)
		}
	}
}
