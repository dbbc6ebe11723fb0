package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

var configOutput string

// configCmd groups configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE:  showConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the payslipsync version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "payslipsync %s\n", version)
	},
}

func init() {
	configShowCmd.Flags().StringVarP(&configOutput, "output", "o", "", "Write the configuration to a file instead of stdout")
	configCmd.AddCommand(configShowCmd)
}

func showConfig(cmd *cobra.Command, args []string) error {
	effective := *cfg
	if effective.Portal.Password != "" {
		effective.Portal.Password = redacted
	}
	if configOutput != "" {
		if err := effective.Save(configOutput); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", configOutput)
		return nil
	}
	data, err := yaml.Marshal(&effective)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
