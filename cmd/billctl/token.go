package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"billreminder/internal/core"
	"billreminder/internal/middleware/auth"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("owner", "", "Owner ID placed in the subject claim")
	tokenCmd.Flags().String("email", "", "Address for bill notifications")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("owner")
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		owner, _ := cmd.Flags().GetString("owner")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		tok, err := auth.NewJWTManager(appConfig.JWTSecret, appConfig.JWTIssuer).
			Generate(core.Owner{ID: owner, Email: email}, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}
