package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/raaihank/bias-auditor/internal/audit"
	"github.com/raaihank/bias-auditor/internal/bias"
	"github.com/raaihank/bias-auditor/internal/config"
	"github.com/raaihank/bias-auditor/internal/extract"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// errThresholdExceeded signals that a document reached the --fail-on level
var errThresholdExceeded = errors.New("bias level threshold exceeded")

// exitCode maps a command error to a process exit status
func exitCode(err error) int {
	if errors.Is(err, errThresholdExceeded) {
		return 1
	}
	return 2
}

// fileReport is the machine-readable outcome for one scanned file
type fileReport struct {
	File      string         `json:"file" yaml:"file"`
	Analyzed  bool           `json:"analyzed" yaml:"analyzed"`
	Sentences int            `json:"sentences" yaml:"sentences"`
	Score     float64        `json:"score" yaml:"score"`
	Level     bias.Level     `json:"level" yaml:"level"`
	Findings  []fileFinding  `json:"findings" yaml:"findings"`
	Counts    map[string]int `json:"categories,omitempty" yaml:"categories,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
}

type fileFinding struct {
	Category string `json:"category" yaml:"category"`
	Word     string `json:"word" yaml:"word"`
	Sentence string `json:"sentence" yaml:"sentence"`
}

func newScanCommand(opts *options) *cobra.Command {
	var (
		format string
		failOn string
	)

	cmd := &cobra.Command{
		Use:   "scan <file>...",
		Short: "Scan documents for biased language",
		Long: `Scan extracts the text of each document, flags sentences that use
words from the bias dictionary and prints a bias density score per file.

Example:
  auditor scan essay.pdf
  auditor scan notes.md report.pdf --format json
  auditor scan policy.pdf --fail-on medium`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args, format, failOn)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().StringVar(&failOn, "fail-on", "none", "exit with status 1 when a document reaches this level: none, medium or high")
	return cmd
}

func runScan(cmd *cobra.Command, opts *options, paths []string, format, failOn string) error {
	threshold, err := parseFailOn(failOn)
	if err != nil {
		return err
	}
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (must be text, json or yaml)", format)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	dict, err := cfg.Scanner.Dictionary()
	if err != nil {
		return err
	}
	scanner, err := bias.NewScanner(dict)
	if err != nil {
		return err
	}

	service := audit.New(audit.Options{
		Scanner:   scanner,
		Extractor: extract.NewRegistry(),
	})

	reports := make([]fileReport, 0, len(paths))
	failed := 0
	for _, path := range paths {
		report := fileReport{File: path, Findings: []fileFinding{}}

		result, err := service.ScanFile(cmd.Context(), path)
		if err != nil {
			report.Error = err.Error()
			failed++
			reports = append(reports, report)
			continue
		}

		report.Analyzed = result.Analyzed
		report.Sentences = result.Report.Sentences
		report.Score = result.Report.Score
		report.Level = result.Report.Level
		report.Counts = result.Report.CategoryCounts()
		for _, f := range result.Report.Findings {
			report.Findings = append(report.Findings, fileFinding{Category: f.Category, Word: f.Word, Sentence: f.Sentence})
		}
		reports = append(reports, report)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err = enc.Encode(reports)
		if err == nil {
			err = enc.Close()
		}
	default:
		writeText(out, reports)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) could not be scanned", failed, len(paths))
	}
	if threshold != "" {
		for _, r := range reports {
			if levelRank(r.Level) >= levelRank(threshold) {
				return fmt.Errorf("%w: %s is %s", errThresholdExceeded, r.File, r.Level)
			}
		}
	}
	return nil
}

func parseFailOn(value string) (bias.Level, error) {
	switch strings.ToLower(value) {
	case "", "none":
		return "", nil
	case "medium":
		return bias.LevelMedium, nil
	case "high":
		return bias.LevelHigh, nil
	default:
		return "", fmt.Errorf("unknown --fail-on level %q (must be none, medium or high)", value)
	}
}

func levelRank(l bias.Level) int {
	switch l {
	case bias.LevelHigh:
		return 3
	case bias.LevelMedium:
		return 2
	case bias.LevelLow:
		return 1
	default:
		return 0
	}
}

// writeText prints a human-readable summary, coloring the level when out is a terminal
func writeText(out io.Writer, reports []fileReport) {
	renderer := lipgloss.NewRenderer(out)
	fileStyle := renderer.NewStyle().Bold(true)
	categoryStyle := renderer.NewStyle().Faint(true)
	errorStyle := renderer.NewStyle().Foreground(lipgloss.Color(bias.ColorHigh))

	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, fileStyle.Render(r.File))

		if r.Error != "" {
			fmt.Fprintf(out, "  %s\n", errorStyle.Render("error: "+r.Error))
			continue
		}
		if !r.Analyzed {
			fmt.Fprintln(out, "  no text could be extracted")
		}

		levelStyle := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color(r.Level.Color()))
		fmt.Fprintf(out, "  score %.1f%%  risk %s  (%d of %d sentences flagged)\n",
			r.Score, levelStyle.Render(string(r.Level)), len(r.Findings), r.Sentences)

		for _, f := range r.Findings {
			fmt.Fprintf(out, "  - %s %q: %s\n", categoryStyle.Render("["+f.Category+"]"), f.Word, f.Sentence)
		}
	}
}
