package main

import (
	"fmt"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/config"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/resources"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg           *config.Config
	phrasesFile   string
	resourcesFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crisisctl",
	Short: "Classify text for crisis risk and inspect emergency resources",
	Long: `crisisctl runs the crisis classifier locally. Classify a single message,
open an interactive loop, list the emergency resource directory, or read
back anonymized crisis events.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load environment variables; flags win over PHRASES_FILE and RESOURCES_FILE
		godotenv.Load()
		cfg = config.Load()
		if phrasesFile == "" {
			phrasesFile = cfg.Phrases.File
		}
		if resourcesFile == "" {
			resourcesFile = cfg.Resources.File
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&phrasesFile, "phrases", "", "phrase set YAML file (default $PHRASES_FILE or built-in phrases)")
	rootCmd.PersistentFlags().StringVar(&resourcesFile, "resources", "", "emergency resource YAML file (default $RESOURCES_FILE or built-in directory)")
}

// newClassifier builds a classifier from --phrases
func newClassifier() (*crisis.Classifier, error) {
	if phrasesFile == "" {
		return crisis.NewClassifier(nil), nil
	}
	phrases, err := crisis.LoadPhraseSet(phrasesFile)
	if err != nil {
		return nil, fmt.Errorf("load phrase set: %w", err)
	}
	return crisis.NewClassifier(phrases), nil
}

// newDirectory builds a resource directory from --resources
func newDirectory() (*resources.Directory, error) {
	d := resources.NewDirectory(resourcesFile, nil)
	if err := d.Load(); err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	return d, nil
}
