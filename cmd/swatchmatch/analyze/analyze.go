// Package analyze implements the "analyze" subcommand: extract dominant
// colors from a raster image and map each to its nearest swatch.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kennyp/swatchmatch/analysis"
	"github.com/kennyp/swatchmatch/repository"
	"github.com/urfave/cli/v3"
)

// Command returns the analyze subcommand.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Extract dominant colors from an image and match them to swatches",
		Description: `Decode a PNG or JPEG file into a single synthetic layer, extract its
dominant colors, and map each to the nearest swatch in --book.

--noise tunes how aggressively similar tones are merged: 0 merges most
aggressively into a handful of clusters, 100 keeps the finest detail.

Examples:
   swatchmatch analyze --dir ./swatches --book pantone-solid-coated-acb --image photo.png
   swatchmatch analyze --dir ./swatches --book pantone-solid-coated-acb --image photo.png --noise 70 --ignore-background --mode expert`,
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
				Name:     "image",
				Usage:    "Path to a PNG or JPEG file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Search mode: normal or expert",
				Value: "normal",
			},
			&cli.IntFlag{
				Name:  "noise",
				Usage: "Clustering aggressiveness dial, 0-100",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "ignore-background",
				Usage: "Suppress a dominant border-hugging background color",
			},
			&cli.IntFlag{
				Name:  "max-colors",
				Usage: "Cap the number of summary colors returned (0 = no cap)",
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

	bookID := cmd.String("book")
	if bookID == "" {
		defaultID, err := repo.GetDefaultPaletteID()
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		bookID = defaultID
	}

	producer := analysis.SingleImageProducer{Path: cmd.String("image")}
	result, err := analysis.Analyze(repo, producer, bookID, mode, int(cmd.Int("noise")), cmd.Bool("ignore-background"), int(cmd.Int("max-colors")))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
