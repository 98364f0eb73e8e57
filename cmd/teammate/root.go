package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	debug      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "teammate",
	Short: "Teammate — an AI colleague that sits in on your meetings",
	Long: `Teammate listens to a live meeting through the microphone, keeps a
transcript, remembers what was said across sessions, and speaks up as a
configurable persona.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
}
