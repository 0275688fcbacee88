package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kennyp/swatchmatch/cmd/swatchmatch/analyze"
	"github.com/kennyp/swatchmatch/cmd/swatchmatch/books"
	"github.com/kennyp/swatchmatch/cmd/swatchmatch/search"
	"github.com/kennyp/swatchmatch/cmd/swatchmatch/serve"
	"github.com/kennyp/swatchmatch/cmd/swatchmatch/show"
	"github.com/urfave/cli/v3"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.Command{
		Name:    "swatchmatch",
		Usage:   "Match colors against Adobe swatch books",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Description: `A command-line tool and web server for browsing Adobe Color Book (.acb)
and Adobe Swatch Exchange (.ase) files, searching them by color, and
extracting the dominant colors of an image against a chosen book.

For more information about a specific command, use:
  swatchmatch <command> --help`,
		Commands: []*cli.Command{
			books.Command(),
			show.Command(),
			search.Command(),
			analyze.Command(),
			serve.Command(),
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose output",
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
