// Package show implements the "show" subcommand: print one book's full
// color list.
package show

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kennyp/swatchmatch/repository"
	"github.com/urfave/cli/v3"
)

// Command returns the show subcommand.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print one book's full color list",
		Description: `Print every color in one swatch book. In expert mode, each color
carries its D50 Lab coordinates and duplicate-family size.

Examples:
   swatchmatch show --dir ./swatches --book pantone-solid-coated-acb
   swatchmatch show --dir ./swatches --book pantone-solid-coated-acb --mode expert`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Usage:    "Directory containing .acb/.ase swatch-book files",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "book",
				Usage: "Book id; defaults to the repository's default palette",
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

	id := cmd.String("book")
	if id == "" {
		defaultID, err := repo.GetDefaultPaletteID()
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		id = defaultID
	}

	details, err := repo.GetBookDetails(id, mode)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(details)
}
