package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// Version is injected by main at build time.
var Version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ontostock",
	Short: "Natural-language front-end for the B3 market knowledge base",
	Long: `ontostock-engine answers Portuguese questions about the Brazilian stock
market by classifying them against SPARQL query templates and running
the generated queries over an RDF knowledge base.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version string) error {
	Version = version
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
}
