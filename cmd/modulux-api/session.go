package main

import (
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/auth"
	"github.com/MarcoPoloResearchLab/modulux/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSessionCommand() *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Development session tokens",
	}

	var (
		userID      string
		email       string
		displayName string
		ttl         time.Duration
	)
	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Print a session token signed with tauth.signing_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = appConfig.SessionTokenTTL
			}
			issuer, err := auth.NewSessionIssuer(auth.SessionIssuerConfig{
				SigningSecret: []byte(appConfig.TAuthSigningKey),
				Issuer:        appConfig.TAuthIssuer,
				TTL:           ttl,
			})
			if err != nil {
				return err
			}
			token, expiresAt, err := issuer.Issue(auth.SessionIdentity{
				UserID:      userID,
				Email:       email,
				DisplayName: displayName,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	mintCmd.Flags().StringVar(&userID, "user-id", "", "User id the session speaks for (provider:subject or plain id)")
	mintCmd.Flags().StringVar(&email, "email", "", "User email")
	mintCmd.Flags().StringVar(&displayName, "name", "", "User display name")
	mintCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to tauth.token_ttl)")
	_ = mintCmd.MarkFlagRequired("user-id")

	sessionCmd.AddCommand(mintCmd)
	return sessionCmd
}
