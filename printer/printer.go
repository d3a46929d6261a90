// Package printer dispatches a captured document to the host print flow.
//
// The dispatcher is a scoped resource: it acquires an ephemeral spool
// surface, injects the raster capture, invokes the host print command and
// tears the surface down on every exit path. In letterhead mode the
// document's stationery-hide flag is set around the capture and is always
// cleared afterwards, even when the capture fails.
package printer

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/clinova/rxdoc"
	"github.com/clinova/rxdoc/layout"
	"github.com/clinova/rxdoc/raster"
)

// Mode selects the print variant.
type Mode int

const (
	// Plain prints the full document including stationery assets.
	Plain Mode = iota
	// Letterhead suppresses the header, watermark and separator assets so
	// the print lands correctly on pre-printed letterhead stock. Layout
	// spacing is preserved.
	Letterhead
)

func (m Mode) String() string {
	if m == Letterhead {
		return "letterhead"
	}
	return "plain"
}

// ParseMode maps the wire value to a Mode; anything but "letterhead" is
// plain.
func ParseMode(s string) Mode {
	if s == "letterhead" {
		return Letterhead
	}
	return Plain
}

// Runner executes the host print command. It exists so tests can observe
// dispatches without a print system.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Dispatcher sends raster captures to the host print flow.
type Dispatcher struct {
	log      zerolog.Logger
	command  string
	runner   Runner
	spoolDir string
}

// New creates a Dispatcher using the given host print command (for example
// "lp"). An empty command defaults to lp.
func New(log zerolog.Logger, command string) *Dispatcher {
	if command == "" {
		command = "lp"
	}
	return &Dispatcher{log: log, command: command, runner: execRunner{}}
}

// SetRunner replaces the command runner. Intended for tests.
func (d *Dispatcher) SetRunner(r Runner) {
	d.runner = r
}

// SetSpoolDir overrides the temp directory used for spool files.
func (d *Dispatcher) SetSpoolDir(dir string) {
	d.spoolDir = dir
}

// Print captures the document and hands it to the host print flow. Failures
// never leave the letterhead flag set or a spool file behind; the operation
// reports the error to its caller and logs it, but no user alert is raised
// for print failures.
func (d *Dispatcher) Print(ctx context.Context, doc *layout.Document, mode Mode) (err error) {
	if doc == nil {
		return rxdoc.ErrNilVisit
	}

	if mode == Letterhead {
		doc.HideStationery = true
		defer func() {
			doc.HideStationery = false
		}()
	}

	spool, err := os.CreateTemp(d.spoolDir, "rxdoc-spool-*.pdf")
	if err != nil {
		return fmt.Errorf("printer: creating spool surface: %w", err)
	}
	defer func() {
		spool.Close()
		if rmErr := os.Remove(spool.Name()); rmErr != nil {
			d.log.Warn().Err(rmErr).Str("spool", spool.Name()).Msg("spool teardown failed")
		}
	}()

	if err := raster.CapturePDF(spool, doc); err != nil {
		d.log.Error().Err(err).Str("mode", mode.String()).Msg("print capture failed")
		return fmt.Errorf("%w: %v", rxdoc.ErrPrintFailed, err)
	}
	// Flush before handing the path to the print command; the deferred Close
	// stays the single owner of the descriptor.
	if err := spool.Sync(); err != nil {
		return fmt.Errorf("printer: flushing spool: %w", err)
	}

	if err := d.runner.Run(ctx, d.command, spool.Name()); err != nil {
		d.log.Error().Err(err).Str("command", d.command).Msg("host print flow failed")
		return fmt.Errorf("%w: %v", rxdoc.ErrPrintFailed, err)
	}

	d.log.Info().Str("mode", mode.String()).Msg("document dispatched to printer")
	return nil
}
