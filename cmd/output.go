package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	statusadapter "github.com/BitForged/Compass/internal/adapters/render/status"
	"github.com/BitForged/Compass/internal/domain"
	"github.com/spf13/cobra"
)

type runE func(cmd *cobra.Command, args []string) error

// action wraps a command so notifications queued while it ran are printed
// once it returns, whether it failed or not.
func (a *app) action(fn runE) runE {
	return func(cmd *cobra.Command, args []string) error {
		defer a.flushAlerts(cmd.ErrOrStderr())
		return fn(cmd, args)
	}
}

func (a *app) flushAlerts(w io.Writer) {
	pending := make([]domain.Notification, 0, a.alerts.Len())
	for a.alerts.Len() > 0 {
		active, ok := a.alerts.First()
		if !ok {
			break
		}
		pending = append(pending, active)
		a.alerts.Remove()
	}

	if rendered := statusadapter.RenderAlerts(pending); rendered != "" {
		_, _ = fmt.Fprintln(w, rendered)
	}
}

// enter passes the navigation guard for a view command.
func (a *app) enter(path string) error {
	if _, err := a.router.Navigate(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeRaw pretty prints a backend payload, or writes it untouched when it
// is not valid JSON.
func writeRaw(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// showRaw passes the guard for route (when set), fetches under a spinner and
// prints the payload.
func (a *app) showRaw(cmd *cobra.Command, route, label string, fetch func(context.Context) (json.RawMessage, error)) error {
	if route != "" {
		if err := a.enter(route); err != nil {
			return err
		}
	}

	raw, err := fetchWithSpinner(cmd.Context(), cmd.ErrOrStderr(), label, fetch)
	if err != nil {
		return err
	}
	return writeRaw(cmd.OutOrStdout(), raw)
}
