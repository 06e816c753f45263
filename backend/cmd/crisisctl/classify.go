package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Classify a message and print the assessment as JSON",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		classifier, err := newClassifier()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(classifier.Classify(strings.Join(args, " ")))
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
