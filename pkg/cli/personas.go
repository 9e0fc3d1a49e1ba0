package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/parlaplate/pkg/service/persona"
	"github.com/urfave/cli/v3"
)

func personasCommand() *cli.Command {
	return &cli.Command{
		Name:  "personas",
		Usage: "List available waitress personas",
		Action: func(ctx context.Context, c *cli.Command) error {
			for _, p := range persona.List() {
				marker := " "
				if p.ID == persona.DefaultID {
					marker = "*"
				}
				fmt.Fprintf(c.Root().Writer, "%s %s %-12s %s\n", marker, p.Emoji, p.ID, p.Summary)
			}
			return nil
		},
	}
}
