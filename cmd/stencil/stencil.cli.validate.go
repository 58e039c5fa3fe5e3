package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"
	"github.com/itsatony/go-stencil"
	"github.com/spf13/cobra"
)

// validateOptions holds parsed validate command flags
type validateOptions struct {
	templatePath string
	format       string
	tree         bool
}

// validationOutput is the JSON validation report
type validationOutput struct {
	Valid bool             `json:"valid"`
	Issue *validationIssue `json:"issue,omitempty"`
	Tree  string           `json:"tree,omitempty"`
}

type validationIssue struct {
	Class   string `json:"class"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (a *app) validateCommand() *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:     CmdNameValidate + " [template]",
		Short:   HelpValidateShort,
		Example: HelpValidateExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && opts.templatePath == "" {
				opts.templatePath = args[0]
			}
			return a.runValidate(opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	f.StringVarP(&opts.format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	f.BoolVar(&opts.tree, FlagTree, false, UsageTree)
	return cmd
}

func (a *app) runValidate(opts *validateOptions) error {
	if opts.templatePath == "" {
		return newExitError(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
	}
	if opts.format != OutputFormatText && opts.format != OutputFormatJSON {
		return newExitError(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", opts.format))
	}

	source, err := readInput(opts.templatePath, a.stdin)
	if err != nil {
		return newExitError(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}
	engine, err := a.openEngine()
	if err != nil {
		return err
	}

	report := validationOutput{Valid: true}
	tmpl, err := engine.Compile(string(source))
	if err != nil {
		report.Valid = false
		report.Issue = newValidationIssue(err)
	} else if opts.tree {
		report.Tree = tmpl.Tree()
	}

	if opts.format == OutputFormatJSON {
		jsonBytes, err := json.MarshalIndent(report, "", JSONIndent)
		if err != nil {
			return newExitError(ExitCodeError, ErrMsgJSONMarshalFailed, err)
		}
		fmt.Fprintln(a.stdout, string(jsonBytes))
	} else {
		a.printValidationText(&report)
	}

	if !report.Valid {
		return newExitError(ExitCodeValidationError, "", nil)
	}
	return nil
}

func (a *app) printValidationText(report *validationOutput) {
	if report.Valid {
		fmt.Fprintln(a.stdout, ValidationTextSuccess)
		if report.Tree != "" {
			fmt.Fprint(a.stdout, report.Tree)
		}
		return
	}

	issue := report.Issue
	fmt.Fprintln(a.stdout, ValidationTextFailure)
	fmt.Fprintf(a.stdout, ValidationTextIssue, issue.Class, issue.Message)
	if issue.Line > 0 {
		fmt.Fprintf(a.stdout, ValidationTextAt, strconv.Itoa(issue.Line), strconv.Itoa(issue.Column))
	}
	fmt.Fprint(a.stdout, FmtNewline)
}

func newValidationIssue(err error) *validationIssue {
	issue := &validationIssue{Class: errorClass(err), Message: err.Error()}

	var cerr *cuserr.CustomError
	if errors.As(err, &cerr) {
		if line, ok := cerr.GetMetadata(stencil.MetaKeyLine); ok {
			issue.Line, _ = strconv.Atoi(line)
		}
		if column, ok := cerr.GetMetadata(stencil.MetaKeyColumn); ok {
			issue.Column, _ = strconv.Atoi(column)
		}
	}
	return issue
}
