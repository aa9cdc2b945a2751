// Command cattysend-core is a thin driver over internal/session: it
// wires together configuration, logging, and one of the two
// orchestrator workflows, then exits. It is not a user shell — no
// interactive device picker, no GUI — just enough to exercise the
// library end to end from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/Tinnci/cattysend/internal/advert"
	"github.com/Tinnci/cattysend/internal/brand"
	"github.com/Tinnci/cattysend/internal/config"
	"github.com/Tinnci/cattysend/internal/logging"
	"github.com/Tinnci/cattysend/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "send":
		runSend(os.Args[2:])
	case "receive":
		runReceive(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cattysend-core send --address <mac> <file> [file...]")
	fmt.Fprintln(os.Stderr, "       cattysend-core receive")
}

func runSend(args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	address := fs.String("address", "", "peer BLE address (colon-separated MAC)")
	_ = fs.Parse(args)
	files := fs.Args()

	if *address == "" || len(files) == 0 {
		usage()
		os.Exit(2)
	}

	settings, log := loadSettingsAndLogger()
	ctx := withSignalCancellation()

	target := advert.DiscoveredDevice{
		Address: *address,
		Brand:   brand.FromID(settings.BrandID),
	}

	sender := session.NewSender(settings, log)
	err := sender.SendToDevice(ctx, target, files, func(e session.Event) {
		logEvent(log, e)
	})
	if err != nil {
		log.Error().Err(err).Msg("send failed")
		os.Exit(1)
	}
}

func runReceive(args []string) {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	_ = fs.Parse(args)

	settings, log := loadSettingsAndLogger()
	ctx := withSignalCancellation()

	receiver := session.NewReceiver(settings, log)
	err := receiver.Start(ctx, func(e session.Event) {
		logEvent(log, e)
	})
	if err != nil {
		log.Error().Err(err).Msg("receive failed")
		os.Exit(1)
	}
}

func loadSettingsAndLogger() (config.Settings, zerolog.Logger) {
	settings, err := config.Load()
	log := logging.New(logging.Options{Verbose: settings.Verbose})
	if err != nil {
		log.Warn().Err(err).Msg("falling back to default settings")
	}
	return settings, log
}

// withSignalCancellation returns a context cancelled on SIGINT/SIGTERM,
// so an operator can Ctrl-C a stuck transfer and still hit every
// orchestrator's cleanup path.
func withSignalCancellation() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func logEvent(log zerolog.Logger, e session.Event) {
	switch {
	case e.Err != nil:
		log.Error().Err(e.Err).Msg("transfer error")
	case e.Complete:
		log.Info().Msg("transfer complete")
	case e.Total > 0:
		log.Info().Uint64("sent", e.Sent).Uint64("total", e.Total).Msg("progress")
	case e.Status != "":
		log.Info().Str("status", e.Status).Msg("status")
	}
}
