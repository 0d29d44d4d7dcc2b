package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	commands "github.com/urfave/cli/v3"

	"github.com/hitchyjs/skiff/internal/cli"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.SetFlags(0)
		log.Println("No .env file found")
	}

	configFlag := func() *commands.StringFlag {
		return &commands.StringFlag{
			Name:    "config",
			Usage:   "Path to the run configuration file",
			Aliases: []string{"c"},
		}
	}
	debugFlag := func() *commands.BoolFlag {
		return &commands.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
			Value: false,
		}
	}

	cmd := &commands.Command{
		Name:  "skiff-chaos",
		Usage: "Hammer a skiff cluster with randomized operations and verify consistency",
		Commands: []*commands.Command{
			{
				Name:  "run",
				Usage: "Run a bounded-duration resilience run",
				Flags: []commands.Flag{
					configFlag(),
					debugFlag(),
					&commands.DurationFlag{
						Name:    "duration",
						Usage:   "Override the configured run duration",
						Aliases: []string{"d"},
					},
					&commands.BoolFlag{
						Name:    "verbose",
						Usage:   "Print every completed operation",
						Aliases: []string{"v"},
						Value:   false,
					},
				},
				Action: cli.Run,
			},
			{
				Name:   "ping",
				Usage:  "Probe the configured cluster endpoints",
				Flags:  []commands.Flag{configFlag(), debugFlag()},
				Action: cli.Ping,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
