package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/usecase/extract"
	"github.com/urfave/cli/v3"
)

func extractCommand() *cli.Command {
	var (
		cfg       config
		outputDir string
		name      string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Directory for the extracted menu JSON",
			Value:       "menus",
			Sources:     cli.EnvVars("PARLAPLATE_MENU_DIR"),
			Destination: &outputDir,
		},
		&cli.StringFlag{
			Name:        "name",
			Usage:       "Menu name (defaults to the first image's file name)",
			Destination: &name,
		},
	}
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract a menu document from page images",
		ArgsUsage: "<page.png> [page.png ...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := loggingContext(ctx, c)
			if err != nil {
				return err
			}

			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("at least one page image is required")
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			pages := make([]extract.PageImage, 0, len(paths))
			for _, path := range paths {
				data, err := os.ReadFile(filepath.Clean(path))
				if err != nil {
					return goerr.Wrap(err, "failed to read page image", goerr.V("path", path))
				}
				pages = append(pages, extract.PageImage{
					Data:     data,
					MIMEType: mimeTypeOf(path),
				})
			}

			sourceName := name
			if sourceName == "" {
				sourceName = paths[0]
			}

			menu, err := extract.New(gemini).ExtractMenu(ctx, sourceName, pages)
			if err != nil {
				return err
			}

			outPath := filepath.Join(outputDir, extract.CleanName(sourceName)+".json")
			if err := extract.SaveMenu(menu, outPath); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Extracted %d items for %s\n", len(menu.Items), menu.Restaurant.Label())
			fmt.Fprintf(c.Root().Writer, "Menu saved to %s\n", outPath)
			return nil
		},
	}
}

func mimeTypeOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
