package cmd

import (
	"context"
	"errors"
	"fmt"

	authadapter "github.com/BitForged/Compass/internal/adapters/auth"
	"github.com/spf13/cobra"
)

var errClientIDMissing = errors.New("auth.client_id is not configured: set COMPASS_AUTH_CLIENT_ID or pass --code")

func newLoginCmd(app *app) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with your Discord account",
		Long: "Without --code, login starts a local callback server, prints the authorization URL " +
			"and waits for the browser redirect. The one-time code is exchanged by the backend.",
		Args: cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			authCode := code
			if authCode == "" {
				obtained, err := waitForAuthorizationCode(cmd, app)
				if err != nil {
					return err
				}
				authCode = obtained
			}

			err := runSpinner(cmd.Context(), cmd.ErrOrStderr(), "Exchanging authorization code...", func(ctx context.Context) error {
				return app.session.Login(ctx, authCode)
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", app.session.User().DisplayName())
			return err
		}),
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code obtained outside the CLI")

	return cmd
}

func waitForAuthorizationCode(cmd *cobra.Command, app *app) (string, error) {
	if app.cfg.Auth.ClientID == "" {
		return "", errClientIDMissing
	}

	state, err := authadapter.NewState()
	if err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}

	server, err := authadapter.StartCallbackServer(app.cfg.Auth.Listen, state, app.log)
	if err != nil {
		return "", fmt.Errorf("start callback server: %w", err)
	}

	authURL, err := authadapter.BuildAuthorizationURL(authadapter.AuthorizationRequest{
		AuthorizeURL: app.cfg.Auth.AuthorizeURL,
		ClientID:     app.cfg.Auth.ClientID,
		RedirectURI:  server.RedirectURI(),
		State:        state,
	})
	if err != nil {
		_ = server.Close()
		return "", fmt.Errorf("build authorization url: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to log in:\n%s\n", authURL)

	code, err := server.WaitForCode(cmd.Context(), app.cfg.Auth.Timeout)
	if err != nil {
		return "", fmt.Errorf("wait for oauth callback: %w", err)
	}
	return code, nil
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			if err := app.session.Logout(cmd.Context(), false); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return err
		}),
	}
}
