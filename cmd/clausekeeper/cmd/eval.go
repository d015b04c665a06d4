package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/solatis/clausekeeper/internal/evaluator"
	"github.com/solatis/clausekeeper/internal/parser"
	"github.com/solatis/clausekeeper/internal/resolve"
	"github.com/spf13/cobra"
)

var (
	evalRuleFile string
	evalDataFile string
	evalTrace    bool
	evalTimeout  time.Duration
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a rule file against JSON data without starting the server",
	RunE:  runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalRuleFile, "rule", "", "path to a rule text file (required)")
	evalCmd.Flags().StringVar(&evalDataFile, "data", "", "path to a JSON data file (defaults to stdin)")
	evalCmd.Flags().BoolVar(&evalTrace, "trace", false, "include the evaluation trace in the output")
	evalCmd.Flags().DurationVar(&evalTimeout, "timeout", 5*time.Second, "evaluation deadline")
	_ = evalCmd.MarkFlagRequired("rule")
}

func runEval(cmd *cobra.Command, args []string) error {
	ruleBytes, err := os.ReadFile(evalRuleFile)
	if err != nil {
		return fmt.Errorf("failed to read rule file: %w", err)
	}

	var dataBytes []byte
	if evalDataFile != "" {
		dataBytes, err = os.ReadFile(evalDataFile)
		if err != nil {
			return fmt.Errorf("failed to read data file: %w", err)
		}
	} else {
		dataBytes, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	var data any
	if len(dataBytes) > 0 {
		if err := json.Unmarshal(dataBytes, &data); err != nil {
			return fmt.Errorf("failed to parse data as JSON: %w", err)
		}
	}

	rules, err := parser.ParseRules(string(ruleBytes))
	if err != nil {
		return fmt.Errorf("failed to parse rule: %w", err)
	}
	ruleSet, err := resolve.Build(rules)
	if err != nil {
		return fmt.Errorf("failed to resolve rule set: %w", err)
	}

	result, err := evaluator.Evaluate(ruleSet, data, evaluator.Options{
		Trace:    evalTrace,
		Deadline: time.Now().Add(evalTimeout),
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	out := map[string]any{
		"result":    result.Verdict,
		"outcome":   result.Outcome,
		"labels":    result.Labels,
		"rule_hash": ruleSet.Hash,
	}
	if evalTrace {
		out["trace"] = result.Trace
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
