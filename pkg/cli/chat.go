package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/service/embcache"
	"github.com/m-mizutani/parlaplate/pkg/service/persona"
	"github.com/m-mizutani/parlaplate/pkg/service/rank"
	"github.com/m-mizutani/parlaplate/pkg/usecase/agent"
	"github.com/m-mizutani/parlaplate/pkg/usecase/extract"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg             config
		menuPath        string
		personaID       string
		outputDir       string
		diet            []string
		avoidAllergens  []string
		pricePreference string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "menu",
			Aliases:     []string{"m"},
			Usage:       "Path to the menu JSON file",
			Sources:     cli.EnvVars("PARLAPLATE_MENU"),
			Destination: &menuPath,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "persona",
			Usage:       "Waitress persona ID (see 'parlaplate personas')",
			Value:       persona.DefaultID,
			Sources:     cli.EnvVars("PARLAPLATE_PERSONA"),
			Destination: &personaID,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Directory for the order export (omit to print to stdout)",
			Sources:     cli.EnvVars("PARLAPLATE_OUTPUT"),
			Destination: &outputDir,
		},
		&cli.StringSliceFlag{
			Name:        "diet",
			Usage:       "Dietary restriction to enforce (vegetarian, vegan)",
			Destination: &diet,
		},
		&cli.StringSliceFlag{
			Name:        "avoid-allergen",
			Usage:       "Allergen to exclude from all candidates",
			Destination: &avoidAllergens,
		},
		&cli.StringFlag{
			Name:        "price",
			Usage:       "Price preference (low, medium, high)",
			Destination: &pricePreference,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, cacheFlags(&cfg)...)
	flags = append(flags, analyticsFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive ordering conversation over a menu",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := loggingContext(ctx, c)
			if err != nil {
				return err
			}

			menu, err := extract.LoadMenu(menuPath)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			store, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}
			sink, err := cfg.newOrderSink(ctx)
			if err != nil {
				return err
			}

			session, err := agent.New(ctx, agent.NewInput{
				Gemini:    gemini,
				Ranker:    rank.New(embcache.New(store, gemini), gemini),
				Repo:      repo,
				OrderSink: sink,
				Menu:      menu,
				MenuRef:   menuPath,
				PersonaID: personaID,
				Constraints: model.Constraints{
					Diet:            diet,
					AvoidAllergens:  avoidAllergens,
					PricePreference: model.PriceLevel(pricePreference),
				},
			})
			if err != nil {
				return err
			}

			return runChatLoop(ctx, c.Root().Writer, session, personaID, menuPath, outputDir)
		},
	}
}

func runChatLoop(ctx context.Context, w io.Writer, session *agent.Session, personaID, menuPath, outputDir string) error {
	p, err := persona.Get(personaID)
	if err != nil {
		return err
	}

	rl, err := readline.New(fmt.Sprintf("%s %s> ", p.Emoji, p.Name))
	if err != nil {
		return goerr.Wrap(err, "failed to open terminal")
	}
	defer rl.Close()

	fmt.Fprintf(w, "%s %s: %s\n", p.Emoji, p.Name, p.Summary)
	fmt.Fprintf(w, "Type 'exit' to quit.\n\n")

	think := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	think.Suffix = " düşünüyor..."

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return goerr.Wrap(err, "failed to read input")
		}

		message := strings.TrimSpace(line)
		if message == "" {
			continue
		}
		if message == "exit" {
			return nil
		}

		think.Start()
		result := session.Respond(ctx, message)
		think.Stop()

		fmt.Fprintf(w, "\n%s\n\n", result.Reply)

		for i, item := range result.Candidates {
			fmt.Fprintf(w, "  %d. %s", i+1, item.Name)
			if item.Price != "" {
				fmt.Fprintf(w, " (%s)", item.Price)
			}
			if len(item.Allergens) > 0 {
				fmt.Fprintf(w, " [allergens: %s]", strings.Join(item.Allergens, ", "))
			}
			fmt.Fprintf(w, "\n")
		}
		if len(result.Candidates) > 0 {
			fmt.Fprintf(w, "\n")
		}

		if result.Order != nil {
			if err := exportOrder(w, result.Order, menuPath, outputDir); err != nil {
				return err
			}
			return nil
		}
	}
}

func exportOrder(w io.Writer, order *model.Order, menuPath, outputDir string) error {
	raw, err := order.Export()
	if err != nil {
		return err
	}

	if outputDir == "" {
		fmt.Fprintf(w, "%s\n", raw)
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create output directory", goerr.V("dir", outputDir))
	}
	name := fmt.Sprintf("order_%s_%s.json", extract.CleanName(menuPath), order.Timestamp.Format("20060102_150405"))
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write order file", goerr.V("path", path))
	}

	fmt.Fprintf(w, "Order saved to %s\n", path)
	return nil
}
