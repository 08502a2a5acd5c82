package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var exitCode int
	cmd := &cli.Command{
		Name:                  "contentingest",
		Usage:                 "Ingest insurance-relevant content from feeds and case law",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Sources: cli.EnvVars("CONTENT_INGEST_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error); overrides the config file",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json); defaults to text on a terminal",
			},
		},
		Commands: []*cli.Command{
			NewRunCommand(&exitCode),
			NewScheduleCommand(),
			NewGraphCommand(),
			NewRunsCommand(),
		},
	}

	err := cmd.Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "contentingest:", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
