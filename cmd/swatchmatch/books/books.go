// Package books implements the "books" subcommand: list the swatch-book
// catalog for a directory.
package books

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kennyp/swatchmatch/repository"
	"github.com/urfave/cli/v3"
)

// Command returns the books subcommand.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "books",
		Usage: "List the swatch-book catalog for a directory",
		Description: `List every .acb/.ase file found in --dir, along with its color
count and declared colorspace. Per-file parse errors are reported inline and
never prevent the rest of the catalog from listing.

Examples:
   swatchmatch books --dir ./swatches
   swatchmatch books --dir ./swatches --mode expert`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Usage:    "Directory containing .acb/.ase swatch-book files",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Search mode: normal or expert",
				Value: "normal",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	mode := repository.ModeNormal
	if cmd.String("mode") == "expert" {
		mode = repository.ModeExpert
	}

	repo := repository.New(cmd.String("dir"))
	summaries, err := repo.ListBooks(mode)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
