package main

import (
	"encoding/json"
	"fmt"

	"github.com/itsatony/go-stencil"
	"github.com/spf13/cobra"
)

// tokenOutput is one token in the JSON listing
type tokenOutput struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Raw    string `json:"raw"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

func (a *app) tokensCommand() *cobra.Command {
	var templatePath, format string
	cmd := &cobra.Command{
		Use:   CmdNameTokens + " [template]",
		Short: HelpTokensShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && templatePath == "" {
				templatePath = args[0]
			}
			return a.runTokens(templatePath, format)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	f.StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	return cmd
}

func (a *app) runTokens(templatePath, format string) error {
	if templatePath == "" {
		return newExitError(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
	}
	if format != OutputFormatText && format != OutputFormatJSON {
		return newExitError(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", format))
	}

	source, err := readInput(templatePath, a.stdin)
	if err != nil {
		return newExitError(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}
	tokens := stencil.Tokenize(string(source))

	if format == OutputFormatText {
		for _, tok := range tokens {
			fmt.Fprintln(a.stdout, tok.String())
		}
		return nil
	}

	out := make([]tokenOutput, len(tokens))
	for i, tok := range tokens {
		out[i] = tokenOutput{
			Type:   string(tok.Type),
			Value:  tok.Value,
			Raw:    tok.Raw,
			Line:   tok.Position.Line,
			Column: tok.Position.Column,
			Offset: tok.Position.Offset,
		}
	}
	jsonBytes, err := json.MarshalIndent(out, "", JSONIndent)
	if err != nil {
		return newExitError(ExitCodeError, ErrMsgJSONMarshalFailed, err)
	}
	fmt.Fprintln(a.stdout, string(jsonBytes))
	return nil
}
