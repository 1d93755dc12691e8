package command

import (
	"flag"
	"io"

	"github.com/fatih/color"
	"github.com/hashicorp/cli"
	hclog "github.com/hashicorp/go-hclog"
)

// Version is the stache release version.
const Version = "0.1.0"

// Meta contains the meta-options and functionality that nearly every
// stache command inherits.
type Meta struct {
	Ui     cli.Ui
	logger hclog.Logger

	verbose bool
	noColor bool
}

// FlagSet returns a FlagSet with the common flags every command accepts.
func (m *Meta) FlagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.BoolVar(&m.verbose, "verbose", false, "")
	f.BoolVar(&m.noColor, "no-color", false, "")
	f.SetOutput(io.Discard)
	return f
}

// setup applies the common flags once they are parsed.
func (m *Meta) setup() {
	if m.verbose {
		m.logger.SetLevel(hclog.Debug)
	}
	if m.noColor {
		color.NoColor = true
	}
}

func generalOptionsUsage() string {
	return `
  -verbose
    Print debug output, including stack lines for failures.

  -no-color
    Disable colored output.`
}
