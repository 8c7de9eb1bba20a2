package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"recipefinder/internal/favorites"
	"recipefinder/internal/resolver"
)

type favoritesAPI interface {
	List(ctx context.Context) ([]string, error)
	Toggle(ctx context.Context, id string) (favorites.ToggleResult, error)
	Clear(ctx context.Context) (int, error)
}

type deps struct {
	favorites favoritesAPI
	resolver  *resolver.Resolver
}

type depsLoader func(ctx context.Context, serverURL string) (*deps, error)

type runFunc func(cmd *cobra.Command, d *deps, args []string) error

// wrapper adapts a runFunc into a cobra RunE that loads deps first.
type wrapper func(run runFunc) func(*cobra.Command, []string) error

// newRootCommand builds the operator CLI. Every change goes through the running server.
func newRootCommand(load depsLoader) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:          "favorites",
		Short:        "Inspect and edit the favorite recipes of a running recipefinder",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "recipefinder base URL (default $RECIPEFINDER_URL or http://localhost:8080)")

	with := wrapper(func(run runFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			d, err := load(cmd.Context(), serverURL)
			if err != nil {
				return err
			}
			return run(cmd, d, args)
		}
	})

	cmd.AddCommand(newListCommand(with), newToggleCommand(with), newClearCommand(with), newShowCommand(with))
	return cmd
}

func newListCommand(with wrapper) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print favorite recipe ids in the order they were saved",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, d *deps, _ []string) error {
			ids, err := d.favorites.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if ids == nil {
					ids = []string{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(ids)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	return cmd
}

func newToggleCommand(with wrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <recipe-id>",
		Short: "Add a recipe to favorites, or remove it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, d *deps, args []string) error {
			res, err := d.favorites.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.Favorite {
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", res.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", res.ID)
			}
			return nil
		}),
	}
}

func newClearCommand(with wrapper) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every favorite",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, d *deps, _ []string) error {
			if !yes {
				return errors.New("refusing to clear favorites without --yes")
			}
			n, err := d.favorites.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d favorites\n", n)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing all favorites")
	return cmd
}

func newShowCommand(with wrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Fetch and print every favorite recipe",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, d *deps, _ []string) error {
			ids, err := d.favorites.List(cmd.Context())
			if err != nil {
				return err
			}
			res := d.resolver.Resolve(cmd.Context(), ids)
			for _, r := range res.Recipes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.ID, r.Name, r.Category)
			}
			if len(res.Missing) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d favorites could not be loaded: %v\n", len(res.Missing), res.Missing)
			}
			return nil
		}),
	}
}
