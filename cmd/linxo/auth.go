package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/linxo/internal/cli"
	"github.com/Veraticus/linxo/internal/common"
	"github.com/Veraticus/linxo/internal/config"
	"github.com/Veraticus/linxo/internal/linxo"
	"github.com/Veraticus/linxo/internal/model"
	"github.com/spf13/cobra"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to Linxo",
		Long: `Obtain and renew the OAuth2 bearer token used by every other command.

Signing in takes two steps:
1. linxo auth url prints the Linxo sign-in page to open in a browser
2. linxo auth exchange CODE trades the code from the redirect for a token

The token is saved to linxo.token_file (default ~/.config/linxo/token.json).`,
	}

	cmd.AddCommand(authURLCmd())
	cmd.AddCommand(authExchangeCmd())
	cmd.AddCommand(authRefreshCmd())
	cmd.AddCommand(authStatusCmd())

	return cmd
}

func authURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the Linxo sign-in URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			session, err := newSession(cfg, nil)
			if err != nil {
				return err
			}

			state := linxo.NewState()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Sign in to Linxo"))
			fmt.Fprintln(out, "Open this URL in a browser and approve access:")
			fmt.Fprintln(out, session.AuthCodeURL(state))
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.SubtleStyle.Render("state: "+state))
			if signup := session.SignupURL(); signup != "" {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No Linxo account yet? "+signup))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Then run: linxo auth exchange CODE")
			return nil
		},
	}
}

func authExchangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exchange [CODE]",
		Short: "Exchange an authorization code for a token",
		Long: `Exchange the authorization code from the sign-in redirect for a bearer token
and save it. Without CODE the code is read from standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			session, err := newSession(cfg, nil)
			if err != nil {
				return err
			}

			var code string
			if len(args) == 1 {
				code = args[0]
			} else {
				reader := cli.NewNonBlockingReader(cmd.InOrStdin())
				code, err = reader.Prompt(ctx, cmd.OutOrStdout(), cli.KeyIcon+" Authorization code")
				if err != nil {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return common.NewUserError("An authorization code is required", nil)
			}

			token, err := session.ExchangeCode(ctx, code)
			if err != nil {
				return explain(err)
			}
			return saveToken(cmd, cfg, token)
		},
	}
}

func authRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the saved token with its refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			current, err := config.LoadToken(cfg.TokenFile)
			if err != nil {
				return common.NewUserError("Not signed in: "+signInHint, err)
			}
			if current.RefreshToken == "" {
				return common.NewUserError("The saved token cannot be refreshed: "+signInHint, nil)
			}

			session, err := newSession(cfg, &current)
			if err != nil {
				return err
			}
			token, err := session.Refresh(cmd.Context(), current.RefreshToken)
			if err != nil {
				return explain(err)
			}
			return saveToken(cmd, cfg, token)
		},
	}
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a token is saved and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			token, err := config.LoadToken(cfg.TokenFile)
			if err != nil {
				fmt.Fprintln(out, cli.FormatWarning("Not signed in"))
				return nil
			}

			switch {
			case token.ExpiresAt.IsZero():
				fmt.Fprintln(out, cli.FormatSuccess("Signed in, the token has no expiry"))
			case token.Expired(time.Now()):
				fmt.Fprintln(out, cli.FormatWarning("The token expired at "+token.ExpiresAt.Local().Format(time.DateTime)))
			default:
				fmt.Fprintln(out, cli.FormatSuccess("Signed in until "+token.ExpiresAt.Local().Format(time.DateTime)))
			}
			if token.RefreshToken != "" {
				fmt.Fprintln(out, cli.SubtleStyle.Render("A refresh token is available"))
			}
			return nil
		},
	}
}

func saveToken(cmd *cobra.Command, cfg *config.Config, token model.BearerToken) error {
	if err := config.SaveToken(cfg.TokenFile, token); err != nil {
		return err
	}
	slog.Debug("Saved token", "path", cfg.TokenFile, "expires_at", token.ExpiresAt)
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed in, token saved to "+cfg.TokenFile))
	return nil
}
