package main

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"
)

// renderOptions holds parsed render command flags
type renderOptions struct {
	templatePath string
	name         string
	dataJSON     string
	dataFilePath string
	outputPath   string
}

func (a *app) renderCommand() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:     CmdNameRender + " [template]",
		Short:   HelpRenderShort,
		Example: HelpRenderExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && opts.templatePath == "" {
				opts.templatePath = args[0]
			}
			return a.runRender(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	f.StringVarP(&opts.name, FlagName, FlagNameShort, "", UsageName)
	f.StringVarP(&opts.dataJSON, FlagData, FlagDataShort, "", UsageData)
	f.StringVarP(&opts.dataFilePath, FlagDataFile, FlagDataFileShort, "", UsageDataFile)
	f.StringVarP(&opts.outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, UsageOutput)
	f.StringVar(&a.flags.defaultValue, FlagDefault, "", UsageDefault)
	f.IntVar(&a.flags.maxDepth, FlagMaxDepth, 0, UsageMaxDepth)
	return cmd
}

func (a *app) runRender(ctx context.Context, opts *renderOptions) error {
	switch {
	case opts.templatePath == "" && opts.name == "":
		return newExitError(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
	case opts.templatePath != "" && opts.name != "":
		return newExitError(ExitCodeUsageError, ErrMsgTemplateAndName, nil)
	}

	data, err := loadData(opts.dataJSON, opts.dataFilePath)
	if err != nil {
		return newExitError(ExitCodeInputError, ErrMsgInvalidData, err)
	}

	engine, err := a.openEngine()
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if opts.name != "" {
		if err := engine.Execute(ctx, &out, opts.name, data); err != nil {
			return templateExit(ErrMsgExecuteFailed, err)
		}
	} else {
		source, err := readInput(opts.templatePath, a.stdin)
		if err != nil {
			return newExitError(ExitCodeInputError, ErrMsgReadFileFailed, err)
		}
		tmpl, err := engine.Compile(string(source))
		if err != nil {
			return templateExit(ErrMsgParseTemplateFailed, err)
		}
		if err := tmpl.Execute(ctx, &out, data); err != nil {
			return templateExit(ErrMsgExecuteFailed, err)
		}
	}

	if err := writeOutput(opts.outputPath, out.Bytes(), a.stdout); err != nil {
		return newExitError(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}
