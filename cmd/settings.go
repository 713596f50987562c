package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

const settingsRoute = "/settings"

func newSettingsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change client preferences",
	}

	cmd.AddCommand(
		newSettingsListCmd(app),
		newSettingsGetCmd(app),
		newSettingsSetCmd(app),
		newSettingsUnsetCmd(app),
	)

	return cmd
}

func newSettingsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			if err := app.enter(settingsRoute); err != nil {
				return err
			}

			all := app.settings.All()
			keys := make([]string, 0, len(all))
			for key := range all {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				encoded, err := json.Marshal(all[key])
				if err != nil {
					return fmt.Errorf("encode setting %q: %w", key, err)
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, encoded); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func newSettingsGetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting as JSON (null when unset)",
		Args:  cobra.ExactArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			if err := app.enter(settingsRoute); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), app.settings.Get(args[0]))
		}),
	}
}

func newSettingsSetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Long:  "The value is stored as JSON when it parses as JSON (numbers, booleans, objects) and as a string otherwise.",
		Args:  cobra.ExactArgs(2),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			if err := app.enter(settingsRoute); err != nil {
				return err
			}
			if err := app.settings.Set(cmd.Context(), args[0], parseSettingValue(args[1])); err != nil {
				return fmt.Errorf("save setting %q: %w", args[0], err)
			}
			return nil
		}),
	}
}

func newSettingsUnsetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:     "unset <key>",
		Aliases: []string{"delete"},
		Short:   "Remove a setting",
		Args:    cobra.ExactArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			if err := app.enter(settingsRoute); err != nil {
				return err
			}
			if err := app.settings.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("remove setting %q: %w", args[0], err)
			}
			return nil
		}),
	}
}

func parseSettingValue(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw
	}
	return value
}
