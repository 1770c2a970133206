package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askQueryOnly bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().BoolVar(&askQueryOnly, "query-only", false, "print the generated SPARQL without executing it")
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, question string) error {
	a, err := bootstrap(false)
	if err != nil {
		return err
	}
	defer a.close()

	answer, err := a.question.Answer(ctx, question)
	if err != nil {
		return err
	}

	if askQueryOnly {
		fmt.Println(answer.Query)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(answer)
}
