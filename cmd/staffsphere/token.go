package main

import (
	"fmt"
	"time"

	"github.com/dori/staffsphere/internal/auth"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with server.jwt_secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		authority, err := auth.New(cfg.Server.JWTSecret)
		if err != nil {
			return err
		}
		token, err := authority.Issue(tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Who the token is for")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTTL, "How long the token stays valid")
	tokenCmd.MarkFlagRequired("subject")
}
