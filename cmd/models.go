package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	catalogadapter "github.com/BitForged/Compass/internal/adapters/catalog"
	"github.com/BitForged/Compass/internal/domain"
	"github.com/spf13/cobra"
)

const modelsRoute = "/models"

func newModelsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Browse backend models and the model catalog",
	}

	cmd.AddCommand(
		newModelsSearchCmd(app),
		newModelsShowCmd(app),
		newBackendListCmd(app, "list", "List checkpoints installed on the backend", app.api.Models),
		newBackendListCmd(app, "samplers", "List available samplers", app.api.Samplers),
		newBackendListCmd(app, "schedulers", "List available schedulers", app.api.Schedulers),
		newBackendListCmd(app, "upscalers", "List available upscalers", app.api.Upscalers),
		newBackendListCmd(app, "modules", "List available modules", app.api.Modules),
		newBackendListCmd(app, "loras", "List LoRAs installed on the backend", app.api.Loras),
	)

	return cmd
}

func newBackendListCmd(app *app, use, short string, fetch func(context.Context) (json.RawMessage, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			return app.showRaw(cmd, modelsRoute, "Fetching "+use+"...", fetch)
		}),
	}
}

func newModelsSearchCmd(app *app) *cobra.Command {
	var (
		modelType string
		nsfw      bool
		limit     int
		byTag     bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the model catalog",
		Long:  "A numeric query looks the model up by id instead of searching.",
		Args:  cobra.ArbitraryArgs,
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			parsedType, err := domain.ParseModelType(modelType)
			if err != nil {
				return err
			}

			query := catalogadapter.SearchQuery{
				Query: strings.Join(args, " "),
				Type:  parsedType,
				NSFW:  nsfw,
				Limit: limit,
				ByTag: byTag,
			}
			return app.showRaw(cmd, modelsRoute, "Searching models...", func(ctx context.Context) (json.RawMessage, error) {
				return app.catalog.SearchModels(ctx, query)
			})
		}),
	}

	cmd.Flags().StringVar(&modelType, "type", "", "Model type: Checkpoints, LoRAs or Embeddings")
	cmd.Flags().BoolVar(&nsfw, "nsfw", true, "Include NSFW models (--nsfw=false to hide them)")
	cmd.Flags().IntVar(&limit, "limit", catalogadapter.DefaultLimit, "Maximum number of results")
	cmd.Flags().BoolVar(&byTag, "tag", false, "Search by tag instead of by name")

	return cmd
}

func newModelsShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one catalog model",
		Args:  cobra.ExactArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("model id %q: must be a positive number", args[0])
			}
			return app.showRaw(cmd, modelsRoute, "Fetching model...", func(ctx context.Context) (json.RawMessage, error) {
				return app.catalog.Model(ctx, id)
			})
		}),
	}
}
