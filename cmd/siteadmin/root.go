package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/crownheights/siteadmin"
)

var (
	cfgFile  string
	envFiles []string
)

var rootCmd = &cobra.Command{
	Use:   "siteadmin",
	Short: "Announcements site and admin panel",
	Long: `siteadmin serves the public announcements and gallery pages and the
password-protected admin panel used to edit them.

Content is written to a Redis document store when one is configured and
to a local SQLite fallback file otherwise.

Settings come from an optional YAML file and SITEADMIN_* environment
variables, for example SITEADMIN_ADMIN_PASSWORD and SITEADMIN_REMOTE_URL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "siteadmin.yml", "config file path")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
}

// loadConfig applies the dotenv files, then reads the config file and the
// environment. Missing dotenv files are skipped.
func loadConfig() (siteadmin.Config, error) {
	for _, p := range envFiles {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return siteadmin.Config{}, fmt.Errorf("loading %s: %w", p, err)
		}
	}
	cfg, err := siteadmin.LoadConfig(cfgFile)
	if err != nil {
		return siteadmin.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
