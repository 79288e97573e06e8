package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crownheights/siteadmin"
)

var pingTimeout time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the remote store responds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closer, err := siteadmin.OpenRemote(cfg)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Connection successful! Database is responding.")
		return nil
	},
}

func init() {
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 5*time.Second, "how long to wait for the remote store")
	rootCmd.AddCommand(pingCmd)
}
