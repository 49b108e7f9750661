package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "valet",
	Short: "Personal agent daemon",
	Long:  "Valet runs a personal assistant agent reachable over chat, with tool use and owner-approved access.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pairCmd)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".valet", "config.yaml")
}
