package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const galleryRoute = "/gallery"

func newGalleryCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gallery",
		Short: "Show your gallery categories",
		Args:  cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			return app.showRaw(cmd, galleryRoute, "Fetching gallery...", app.api.MyCategories)
		}),
	}
}

func newImagesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Inspect or delete generated images",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "metadata <image-id>",
			Short: "Show the generation parameters of an image",
			Args:  cobra.ExactArgs(1),
			RunE: app.action(func(cmd *cobra.Command, args []string) error {
				return app.showRaw(cmd, galleryRoute, "Fetching metadata...", func(ctx context.Context) (json.RawMessage, error) {
					return app.api.ImageMetadata(ctx, args[0])
				})
			}),
		},
		&cobra.Command{
			Use:   "delete <image-id>",
			Short: "Delete an image",
			Args:  cobra.ExactArgs(1),
			RunE: app.action(func(cmd *cobra.Command, args []string) error {
				return app.showRaw(cmd, galleryRoute, "Deleting image...", func(ctx context.Context) (json.RawMessage, error) {
					return app.api.DeleteImage(ctx, args[0])
				})
			}),
		},
	)

	return cmd
}

func newCategoriesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage gallery categories",
	}

	var fields []string
	update := &cobra.Command{
		Use:   "update <category-id>",
		Short: "Replace category fields (--set key=value, values parsed as JSON when possible)",
		Args:  cobra.ExactArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			parsed, err := parseFieldAssignments(fields)
			if err != nil {
				return err
			}
			return app.showRaw(cmd, galleryRoute, "Updating category...", func(ctx context.Context) (json.RawMessage, error) {
				return app.api.UpdateCategory(ctx, args[0], parsed)
			})
		}),
	}
	update.Flags().StringArrayVar(&fields, "set", nil, "Field assignment key=value (repeatable)")
	_ = update.MarkFlagRequired("set")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your categories",
			Args:  cobra.NoArgs,
			RunE: app.action(func(cmd *cobra.Command, _ []string) error {
				return app.showRaw(cmd, galleryRoute, "Fetching categories...", app.api.MyCategories)
			}),
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a category",
			Args:  cobra.MinimumNArgs(1),
			RunE: app.action(func(cmd *cobra.Command, args []string) error {
				name := strings.Join(args, " ")
				return app.showRaw(cmd, galleryRoute, "Creating category...", func(ctx context.Context) (json.RawMessage, error) {
					return app.api.CreateCategory(ctx, name)
				})
			}),
		},
		&cobra.Command{
			Use:   "rename <category-id> <name>",
			Short: "Rename a category",
			Args:  cobra.MinimumNArgs(2),
			RunE: app.action(func(cmd *cobra.Command, args []string) error {
				name := strings.Join(args[1:], " ")
				return app.showRaw(cmd, galleryRoute, "Renaming category...", func(ctx context.Context) (json.RawMessage, error) {
					return app.api.RenameCategory(ctx, args[0], name)
				})
			}),
		},
		update,
		&cobra.Command{
			Use:   "delete <category-id>",
			Short: "Delete a category",
			Args:  cobra.ExactArgs(1),
			RunE: app.action(func(cmd *cobra.Command, args []string) error {
				return app.showRaw(cmd, galleryRoute, "Deleting category...", func(ctx context.Context) (json.RawMessage, error) {
					return app.api.DeleteCategory(ctx, args[0])
				})
			}),
		},
	)

	return cmd
}

func parseFieldAssignments(assignments []string) (map[string]any, error) {
	fields := make(map[string]any, len(assignments))
	for _, assignment := range assignments {
		key, value, ok := strings.Cut(assignment, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field assignment %q: want key=value", assignment)
		}
		fields[key] = parseSettingValue(value)
	}
	return fields, nil
}
