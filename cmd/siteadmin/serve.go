package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crownheights/siteadmin"
)

var staticDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var opts []siteadmin.Option
		if staticDir != "" {
			opts = append(opts, siteadmin.WithStaticDir(staticDir))
		}
		app := siteadmin.New(cfg, siteadmin.ViewFuncs{}, opts...)
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&staticDir, "static-dir", "", "extra directory served under /static")
	rootCmd.AddCommand(serveCmd)
}
