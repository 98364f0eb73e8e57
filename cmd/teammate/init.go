package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sandevgo/teammate/internal/config"
)

const envTemplate = `# Teammate credentials. Keep this file out of version control.
OPENAI_API_KEY=
ELEVENLABS_API_KEY=
TAVILY_API_KEY=
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the runtime directory with a default config",
	RunE: func(cmd *cobra.Command, args []string) error {
		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0755); err != nil {
			return err
		}

		cfgPath := filepath.Join(runtimePath, "config.yaml")
		if err := writeIfMissing(cfgPath, defaultConfigYAML()); err != nil {
			return err
		}

		envPath := filepath.Join(runtimePath, ".env")
		if err := writeIfMissing(envPath, []byte(envTemplate)); err != nil {
			return err
		}

		fmt.Printf("Initialized %s\nEdit %s and add your API keys to %s\n", runtimePath, cfgPath, envPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func writeIfMissing(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("%s already exists, leaving it alone\n", path)
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func defaultConfigYAML() []byte {
	data, err := yaml.Marshal(config.Default())
	if err != nil {
		panic("failed to marshal default config: " + err.Error())
	}
	return data
}
