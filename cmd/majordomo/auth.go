package main

import (
	"fmt"
	"strings"

	"github.com/majordomo-ai/majordomo/internal/googleauth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newAuthCmd runs the one-time Google OAuth consent flow for the
// calendar and Gmail scopes.
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar and Gmail",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := strings.TrimSpace(viper.GetString("google.credentials_file"))
			token := strings.TrimSpace(viper.GetString("google.token_file"))

			code, _ := cmd.Flags().GetString("code")
			if strings.TrimSpace(code) == "" {
				url, err := googleauth.AuthURL(creds)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(),
					"Open this URL, grant access, then rerun with --code <authorization code>:\n\n%s\n", url)
				return nil
			}

			if err := googleauth.Exchange(cmd.Context(), creds, token, strings.TrimSpace(code)); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token stored in %s\n", token)
			return nil
		},
	}
	cmd.Flags().String("code", "", "Authorization code from the consent page.")
	return cmd
}
