// Package main runs one terminal client command against the backend.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	boardcmd "github.com/louisbranch/boardkit/internal/cmd/board"
	entrypoint "github.com/louisbranch/boardkit/internal/platform/cmd"
	"github.com/louisbranch/boardkit/internal/platform/config"
	boardapp "github.com/louisbranch/boardkit/internal/services/board"
)

func main() {
	cfg, err := boardcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceBoard))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := boardcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, boardapp.ErrUsage) {
			os.Exit(2)
		}
		config.Exitf("Error: %v", err)
	}
}
