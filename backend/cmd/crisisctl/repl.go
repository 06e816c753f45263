package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/blackrose-blackhat/crisis-guard/backend/internal/cedar"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/crisis"
	"github.com/blackrose-blackhat/crisis-guard/backend/internal/resources"
	"github.com/spf13/cobra"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Type messages and see how they are classified",
	RunE: func(cmd *cobra.Command, args []string) error {
		classifier, err := newClassifier()
		if err != nil {
			return err
		}
		directory, err := newDirectory()
		if err != nil {
			return err
		}
		engine, err := cedar.NewEngineWithLogger(cfg.Policies.Path, nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, colorCyan+colorBold+`
╔═══════════════════════════════════════════════════════════╗
║          CRISIS GUARD - Interactive Classifier            ║
║          Type a message to see its risk assessment        ║
║          Type 'exit' or 'quit' to exit                    ║
╚═══════════════════════════════════════════════════════════╝`+colorReset)
		fmt.Fprintf(out, "%s[✓] Components initialized%s\n", colorGreen, colorReset)
		fmt.Fprintf(out, "    Policy: v%s\n\n", engine.PolicyVersion())

		runREPL(cmd.InOrStdin(), out, classifier, engine, directory)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runREPL(in io.Reader, out io.Writer, classifier *crisis.Classifier, engine *cedar.Engine, directory *resources.Directory) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(out, "%s%s> %s", colorBold, colorBlue, colorReset)

		if !scanner.Scan() {
			break
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if text == "exit" || text == "quit" {
			fmt.Fprintln(out, colorCyan+"Take care."+colorReset)
			break
		}

		a := classifier.Classify(text)
		printAssessment(out, a, classifier.Match(text), engine.Permitted(a), directory)
		fmt.Fprintln(out)
	}
}

func severityColor(s crisis.Severity) string {
	switch s {
	case crisis.SeverityHigh:
		return colorRed
	case crisis.SeverityMedium, crisis.SeverityLow:
		return colorYellow
	default:
		return colorGreen
	}
}

func printAssessment(out io.Writer, a crisis.RiskAssessment, hits crisis.Hits, actions []cedar.EvaluationResult, directory *resources.Directory) {
	fmt.Fprintln(out)

	// Severity banner
	fmt.Fprintf(out, "%s%s  %s  %s\n", colorBold, severityColor(a.Severity), strings.ToUpper(string(a.Severity)), colorReset)

	fmt.Fprintf(out, "%s┌─ Assessment ───────────────────────────────────────%s\n", colorYellow, colorReset)
	fmt.Fprintf(out, "│ Crisis:     %v\n", a.IsCrisis)
	fmt.Fprintf(out, "│ Risk Score: %.2f\n", a.RiskScore)
	fmt.Fprintf(out, "│ Confidence: %.2f\n", a.Confidence)
	fmt.Fprintf(out, "%s└────────────────────────────────────────────────────%s\n", colorYellow, colorReset)

	fmt.Fprintf(out, "%s┌─ Matches ──────────────────────────────────────────%s\n", colorCyan, colorReset)
	fmt.Fprintf(out, "│ Suicidal:  %s\n", listOrNone(hits.Suicidal))
	fmt.Fprintf(out, "│ Self-harm: %s\n", listOrNone(hits.SelfHarm))
	fmt.Fprintf(out, "│ Crisis:    %s\n", listOrNone(hits.Crisis))
	fmt.Fprintf(out, "│ Urgent:    %s\n", listOrNone(hits.Urgent))
	fmt.Fprintf(out, "%s└────────────────────────────────────────────────────%s\n", colorCyan, colorReset)

	if len(actions) == 0 {
		return
	}

	fmt.Fprintf(out, "%s┌─ Response ─────────────────────────────────────────%s\n", colorRed, colorReset)
	for _, act := range actions {
		fmt.Fprintf(out, "│ %s\n", act.Action)
		var list []resources.Resource
		switch act.Action {
		case cedar.ActionOfferCall:
			list = directory.GetEmergencyResources(resources.TypeVoice)
		case cedar.ActionOfferText:
			list = directory.GetEmergencyResources(resources.TypeText)
		}
		for _, r := range list {
			fmt.Fprintf(out, "│   %s (%s)\n", r.Name, r.Number)
		}
	}
	fmt.Fprintf(out, "%s└────────────────────────────────────────────────────%s\n", colorRed, colorReset)
}

func listOrNone(list []string) string {
	if len(list) == 0 {
		return "None"
	}
	return strings.Join(list, ", ")
}
