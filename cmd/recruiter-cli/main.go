package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configFlag string

	root := &cobra.Command{
		Use:   "recruiter",
		Short: "recruiter — conversational assistant for ATS workflows",
		Long:  "Chat with a recruiting assistant that can look up jobs, move candidates through pipelines and record assessments. Backend calls are simulated unless a GraphQL endpoint is configured.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// config.Load reads the file path from the environment; the
			// flag just feeds it.
			if configFlag != "" {
				os.Setenv("RECRUITER_CONFIG_FILE", configFlag)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "", "path to a YAML config file")

	root.AddCommand(
		chatCmd(),
		serveCmd(),
		functionsCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
