package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/bigflow/internal/graph"
	"github.com/roach88/bigflow/internal/level"
)

// ValidationIssue is one problem found in a level.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                 `json:"valid"`
	Level       string               `json:"level,omitempty"`
	Nodes       int                  `json:"nodes,omitempty"`
	Connections int                  `json:"connections,omitempty"`
	Errors      []ValidationIssue    `json:"errors,omitempty"`
	Warnings    []level.CycleWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <level-file>",
		Short: "Validate a level definition without evaluating it",
		Long: `Load a YAML or CUE level definition and check it: CUE schema, required
fields, unique node names and connections between known nodes.

Cycles are legal and reported as warnings: the connection closing a cycle
contributes no flow.

Exit codes:
  0 - Level is valid
  1 - Level was read but is invalid
  2 - Command error (file not found, unsupported extension, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, levelPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	opts.Logger().Debug("loading level", "path", levelPath)
	def, err := level.Load(levelPath)
	if err != nil {
		issues := validationIssues(err)
		if len(issues) == 0 {
			_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load level", err)
		}
		return outputValidationErrors(formatter, issues)
	}

	result := ValidationResult{
		Valid:       true,
		Level:       def.Name,
		Nodes:       len(def.Nodes),
		Connections: len(def.Connections),
		Warnings:    level.AnalyzeCycles(def),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Level %s valid (%d nodes, %d connections)\n", result.Level, result.Nodes, result.Connections)
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", w.Message)
	}
	return nil
}

// validationIssues flattens err into issues. It returns nil when err is not
// a problem with the file's content (missing file, YAML syntax).
func validationIssues(err error) []ValidationIssue {
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		var issues []ValidationIssue
		for _, e := range multi.Unwrap() {
			issues = append(issues, validationIssues(e)...)
		}
		return issues
	}

	var dup *graph.DuplicateRegistrationError
	if errors.As(err, &dup) {
		return []ValidationIssue{{Code: string(dup.Code()), Message: err.Error()}}
	}

	var verr *level.ValidationError
	if errors.As(err, &verr) {
		return []ValidationIssue{{Code: ErrCodeInvalid, Field: verr.Field, Message: verr.Message}}
	}

	var lerr *level.LoadError
	if errors.As(err, &lerr) {
		issue := ValidationIssue{Code: ErrCodeLoad, Message: lerr.Message}
		if lerr.Pos.IsValid() {
			issue.Line = lerr.Pos.Line()
		}
		return []ValidationIssue{issue}
	}

	var terr *yaml.TypeError
	if errors.As(err, &terr) {
		issues := make([]ValidationIssue, 0, len(terr.Errors))
		for _, msg := range terr.Errors {
			issues = append(issues, ValidationIssue{Code: ErrCodeLoad, Message: msg})
		}
		return issues
	}
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	message := fmt.Sprintf("validation failed with %d error(s)", len(issues))
	if formatter.JSON() {
		return formatter.Failure(issues[0].Code, message, ValidationResult{Valid: false, Errors: issues})
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		if issue.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, issue.Field, issue.Message)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return NewExitError(ExitFailure, message)
}
