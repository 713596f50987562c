package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	statusadapter "github.com/BitForged/Compass/internal/adapters/render/status"
	"github.com/BitForged/Compass/internal/domain"
	"github.com/spf13/cobra"
)

type statusOutput struct {
	LoggedIn       bool         `json:"logged_in"`
	User           *domain.User `json:"user,omitempty"`
	Role           string       `json:"role,omitempty"`
	AvatarURL      string       `json:"avatar_url,omitempty"`
	TokenExpiresAt *time.Time   `json:"token_expires_at,omitempty"`
	BaseURL        string       `json:"base_url"`
	RealtimeURL    string       `json:"realtime_url"`
	Storage        string       `json:"storage"`
	ConfigFile     string       `json:"config_file,omitempty"`
}

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool
	var verify bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the local session and configuration",
		Args:  cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			if verify {
				if err := verifySession(cmd, app); err != nil && !isAuthRejection(err) {
					return err
				}
			}
			return writeStatus(cmd, app, asJSON)
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	cmd.Flags().BoolVar(&verify, "verify", false, "Check the token against the backend first")

	return cmd
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Verify the session with the backend and print the user",
		Args:  cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			if !app.session.IsLoggedIn() {
				return fmt.Errorf("whoami: %w", domain.ErrAuthRequired)
			}
			if err := verifySession(cmd, app); err != nil {
				return err
			}

			session := app.session.Snapshot()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", session.User.DisplayName(), session.Role)
			return err
		}),
	}
}

func verifySession(cmd *cobra.Command, app *app) error {
	return runSpinner(cmd.Context(), cmd.ErrOrStderr(), "Verifying session...", func(ctx context.Context) error {
		return app.session.VerifyTokenIsStillValid(ctx)
	})
}

// isAuthRejection reports a token the backend refused. The session has
// already been cleared in that case, so status still has something to show.
func isAuthRejection(err error) bool {
	status, ok := domain.StatusOf(err)
	return ok && (status == http.StatusUnauthorized || status == http.StatusForbidden)
}

func writeStatus(cmd *cobra.Command, app *app, asJSON bool) error {
	session := app.session.Snapshot()
	expiry := app.session.TokenExpiry()

	if asJSON {
		out := statusOutput{
			LoggedIn:    session.IsLoggedIn(),
			User:        session.User,
			AvatarURL:   app.session.AvatarURL(),
			BaseURL:     app.cfg.API.BaseURL,
			RealtimeURL: app.cfg.Realtime.URL,
			Storage:     app.storageName,
			ConfigFile:  app.cfg.File,
		}
		if session.IsLoggedIn() {
			out.Role = session.Role.String()
		}
		if !expiry.IsZero() {
			out.TokenExpiresAt = &expiry
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	rendered, err := app.statusRenderer(statusadapter.Status{
		Session:     session,
		AvatarURL:   app.session.AvatarURL(),
		TokenExpiry: expiry,
		BaseURL:     app.cfg.API.BaseURL,
		Storage:     app.storageName,
	}, statusadapter.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
