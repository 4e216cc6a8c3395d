package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/usecase/history"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func historyCommand(logCfg *logConfig) *cli.Command {
	var cfg config

	// open loads the history store for a subcommand; the returned function
	// releases the backend
	open := func(ctx context.Context) (*history.Store, func(), error) {
		kv, closeKV, err := cfg.newKVStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		return history.New(ctx, kv), closeKV, nil
	}

	return &cli.Command{
		Name:  "history",
		Usage: "Browse and manage generation history",
		Flags: storeFlags(&cfg),
		Commands: []*cli.Command{
			historyListCommand(logCfg, open),
			historyIDCommand(logCfg, open, "favorite", "Toggle the favorite flag of a generation",
				func(ctx context.Context, w io.Writer, store *history.Store, id model.GenerationID) error {
					if !store.ToggleFavorite(ctx, id) {
						return goerr.New("generation not found", goerr.V("id", id))
					}
					fmt.Fprintf(w, "%s favorite=%t\n", id, store.Get(id).Favorite)
					return nil
				}),
			historyIDCommand(logCfg, open, "remove", "Remove a generation",
				func(ctx context.Context, w io.Writer, store *history.Store, id model.GenerationID) error {
					if store.Get(id) == nil {
						return goerr.New("generation not found", goerr.V("id", id))
					}
					store.Remove(ctx, id)
					fmt.Fprintf(w, "%s removed\n", id)
					return nil
				}),
			{
				Name:  "clear",
				Usage: "Remove every generation",
				Action: func(ctx context.Context, c *cli.Command) error {
					ctx = logCfg.withLogger(ctx)
					store, closeKV, err := open(ctx)
					if err != nil {
						return err
					}
					defer closeKV()

					n := store.Len()
					store.Clear(ctx)
					fmt.Fprintf(c.Root().Writer, "%d generations removed\n", n)
					return nil
				},
			},
		},
	}
}

type openStoreFunc func(ctx context.Context) (*history.Store, func(), error)

func historyListCommand(logCfg *logConfig, open openStoreFunc) *cli.Command {
	var (
		genType   string
		query     string
		favorites bool
	)

	return &cli.Command{
		Name:  "list",
		Usage: "List generations, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "type",
				Aliases:     []string{"t"},
				Usage:       "Only list generations of this type",
				Destination: &genType,
			},
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"s"},
				Usage:       "Case-insensitive search in title, description and prompt",
				Destination: &query,
			},
			&cli.BoolFlag{
				Name:        "favorites",
				Aliases:     []string{"f"},
				Usage:       "Only list favorites",
				Destination: &favorites,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.withLogger(ctx)
			store, closeKV, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeKV()

			records := store.Find(history.Query{Text: query, Type: genType, FavoritesOnly: favorites})
			w := c.Root().Writer
			for _, r := range records {
				star := " "
				if r.Favorite {
					star = "*"
				}
				fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\n",
					star, r.ID, r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Type, r.Title)
			}

			if len(records) == 0 {
				fmt.Fprintln(w, "No generations found")
			}
			return nil
		},
	}
}

func historyIDCommand(logCfg *logConfig, open openStoreFunc, name, usage string, fn func(context.Context, io.Writer, *history.Store, model.GenerationID) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<generation-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.withLogger(ctx)
			if c.Args().Len() != 1 {
				return goerr.New("exactly one generation ID is required")
			}
			id := model.GenerationID(c.Args().First())

			store, closeKV, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeKV()

			return fn(ctx, c.Root().Writer, store, id)
		},
	}
}
