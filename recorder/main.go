package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
)

// CLI is the recorder command line. Values may also come from a YAML file;
// flags override file values.
type CLI struct {
	Config kong.ConfigFlag `help:"Load flag values from a YAML file." short:"c"`

	Record RecordCmd `cmd:"" default:"withargs" help:"Record a light sensor session to CSV."`
	Ports  PortsCmd  `cmd:"" help:"List serial ports."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("ldat-recorder"),
		kong.Description("Record LDAT light sensor sessions and measure click-to-photon latency"),
		kong.UsageOnError(),
		kong.Configuration(kongyaml.Loader, "recorder.yaml", "~/.config/ldat/recorder.yaml"),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
