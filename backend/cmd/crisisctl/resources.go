package main

import (
	"fmt"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/resources"
	"github.com/spf13/cobra"
)

var resourceType string

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List emergency resources in priority order",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resourceType != "" && !resources.ValidType(resourceType) {
			return fmt.Errorf("unknown resource type %q (want voice or text)", resourceType)
		}

		directory, err := newDirectory()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		list := directory.GetEmergencyResources(resourceType)
		if len(list) == 0 {
			fmt.Fprintln(out, "No emergency resources configured.")
			return nil
		}
		for _, r := range list {
			fmt.Fprintf(out, "%-20s %-5s %-8s p%d  %s\n", r.ID, r.Type, r.Number, r.Priority, r.Name)
		}
		return nil
	},
}

func init() {
	resourcesCmd.Flags().StringVar(&resourceType, "type", "", "filter by channel: voice or text")
	rootCmd.AddCommand(resourcesCmd)
}
