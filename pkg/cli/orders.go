package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func ordersCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of orders to show",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "orders",
		Usage: "List recent finalized orders",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := loggingContext(ctx, c)
			if err != nil {
				return err
			}

			if cfg.project == "" {
				return goerr.New("project is required to list persisted orders")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			orders, err := repo.ListOrders(ctx, int(limit))
			if err != nil {
				return err
			}

			if len(orders) == 0 {
				fmt.Fprintf(c.Root().Writer, "No orders found.\n")
				return nil
			}

			for _, order := range orders {
				names := make([]string, 0, len(order.Items))
				for _, item := range order.Items {
					names = append(names, item.Name)
				}
				fmt.Fprintf(c.Root().Writer, "%s  %-20s %-10s %s\n",
					order.Timestamp.Format("2006-01-02 15:04"),
					order.Restaurant, order.Persona, strings.Join(names, ", "))
			}
			return nil
		},
	}
}
