// Package search implements the "search" subcommand: find the nearest
// swatch (or swatches) to a given color.
package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kennyp/swatchmatch/repository"
	"github.com/urfave/cli/v3"
)

// Command returns the search subcommand.
func Command() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find the nearest swatch to a color",
		ArgsUsage: "<color>",
		Description: `Search one book, or every book in the repository, for swatches
nearest to <color>. <color> accepts hex (#RRGGBB, #RGB, with or without
the '#'), "rgb(r,g,b)"/"rgba(...)", "hsl(h,s%,l%)"/"hsla(...)", and
"cmyk(c,m,y,k)".

In expert mode the probable-achromatic shortcut, rarity- and usage-adjusted
ranking, and top-5 delta-E00/reliability annotation are applied; see
--threshold-*.

Examples:
   swatchmatch search --dir ./swatches "#FF6A00"
   swatchmatch search --dir ./swatches --book pantone-solid-coated-acb --mode expert "rgb(255,106,0)"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Usage:    "Directory containing .acb/.ase swatch-book files",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "book",
				Usage: "Restrict the search to one book id; default searches every book",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Search mode: normal or expert",
				Value: "normal",
			},
			&cli.Float64Flag{
				Name:  "threshold-white",
				Usage: "Expert-mode probable-achromatic delta-E00 gate against white",
				Value: 2.0,
			},
			&cli.Float64Flag{
				Name:  "threshold-black",
				Usage: "Expert-mode probable-achromatic delta-E00 gate against black",
				Value: 2.0,
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return cli.Exit("Error: search requires a <color> argument", 1)
	}

	mode := repository.ModeNormal
	if cmd.String("mode") == "expert" {
		mode = repository.ModeExpert
	}

	repo := repository.New(cmd.String("dir"))
	result, err := repo.SearchByHex(cmd.Args().First(), cmd.String("book"), mode, cmd.Float64("threshold-white"), cmd.Float64("threshold-black"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
