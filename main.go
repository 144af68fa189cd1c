package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Tiramister/CSAR/config"
	"github.com/Tiramister/CSAR/runner"
	"github.com/Tiramister/CSAR/shell"
)

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
}

func main() {
	args := os.Args[1:]
	interactive := len(args) > 0 && args[0] == "shell"
	if interactive {
		args = args[1:]
	}

	cfg := &config.Config{}
	if err := cfg.Load(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogging(cfg.Debug)

	if interactive {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		sc := shell.NewShellController(cfg)
		go sc.Loop(sig)
		<-sig
		log.Debug().Msg("shutting down")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ex, err := runner.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("configuring experiment")
	}
	if basis := ex.TrueBasis(); len(basis) > 0 {
		log.Info().Ints("basis", basis).Msg("true maximum-weight basis")
	} else {
		log.Warn().Msg("instance has no full-rank basis")
	}

	agg, results, err := ex.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("running experiment")
	}
	fmt.Print(agg.String())
	if err := runner.PullHistogram(os.Stdout, results); err != nil {
		log.Error().Err(err).Msg("rendering histogram")
	}
}
