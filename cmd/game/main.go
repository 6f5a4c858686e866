package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/tomz197/shatter/internal/config"
	"github.com/tomz197/shatter/internal/loop/client"
	loopconfig "github.com/tomz197/shatter/internal/loop/config"
	"github.com/tomz197/shatter/internal/loop/server"
)

func main() {
	logger, closeLog, err := openLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	presets, err := config.LoadEffectPresets(config.GetEnv("EFFECTS_FILE", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gs := server.NewServer(server.Options{
		Logger:           logger.With("component", "server"),
		Presets:          presets,
		CoordsConversion: config.GetEnvFloat("COORDS_CONVERSION", loopconfig.DefaultCoordsConversion),
	})
	go gs.Run(ctx)

	c := client.NewClient(gs, bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{
		Username:     config.GetEnv("USER", "pilot"),
		ColorProfile: termenv.EnvColorProfile(),
		ShowEffects:  logger.GetLevel() <= log.DebugLevel,
	})
	if err := c.Run(); err != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

// openLogger logs to LOG_FILE when set. The terminal belongs to the game, so
// logs are discarded otherwise.
func openLogger() (*log.Logger, func(), error) {
	path := config.GetEnv("LOG_FILE", "")
	if path == "" {
		return config.NewLogger(io.Discard, "shatter"), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return config.NewLogger(f, "shatter"), func() { _ = f.Close() }, nil
}
