package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itsatony/go-stencil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     CmdNameStore,
		Short:   HelpStoreShort,
		Example: HelpStoreExample,
	}
	cmd.AddCommand(
		a.storePutCommand(),
		a.storeGetCommand(),
		a.storeListCommand(),
		a.storeDeleteCommand(),
		a.storeDriversCommand(),
	)
	return cmd
}

func (a *app) storePutCommand() *cobra.Command {
	var templatePath string
	var meta []string
	cmd := &cobra.Command{
		Use:   CmdNamePut + " <name>",
		Short: HelpPutShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if templatePath == "" {
				return newExitError(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
			}
			metadata, err := parseMetadata(meta)
			if err != nil {
				return newExitError(ExitCodeUsageError, ErrMsgInvalidMeta, err)
			}
			source, err := readInput(templatePath, a.stdin)
			if err != nil {
				return newExitError(ExitCodeInputError, ErrMsgReadFileFailed, err)
			}
			engine, err := a.openEngine()
			if err != nil {
				return err
			}

			tmpl := &stencil.StoredTemplate{Name: args[0], Source: string(source), Metadata: metadata}
			if err := engine.Save(cmd.Context(), tmpl); err != nil {
				return templateExit(ErrMsgStorageFailed, err)
			}
			fmt.Fprintf(a.stdout, StoreTextSaved+FmtNewline, tmpl.Name, tmpl.Version)
			return nil
		},
	}
	cmd.Flags().StringVarP(&templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	cmd.Flags().StringArrayVar(&meta, FlagMeta, nil, UsageMeta)
	return cmd
}

func (a *app) storeGetCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   CmdNameGet + " <name>",
		Short: HelpGetShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkStoreFormat(format); err != nil {
				return err
			}
			engine, err := a.openEngine()
			if err != nil {
				return err
			}
			tmpl, err := engine.Get(cmd.Context(), args[0])
			if err != nil {
				return templateExit(ErrMsgStorageFailed, err)
			}
			if format == OutputFormatText {
				fmt.Fprint(a.stdout, tmpl.Source)
				return nil
			}
			return a.printStructured(format, tmpl)
		},
	}
	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat+", yaml")
	return cmd
}

func (a *app) storeListCommand() *cobra.Command {
	var format string
	query := &stencil.TemplateQuery{}
	cmd := &cobra.Command{
		Use:   CmdNameList,
		Short: HelpListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkStoreFormat(format); err != nil {
				return err
			}
			engine, err := a.openEngine()
			if err != nil {
				return err
			}
			templates, err := engine.List(cmd.Context(), query)
			if err != nil {
				return templateExit(ErrMsgStorageFailed, err)
			}
			if format != OutputFormatText {
				return a.printStructured(format, templates)
			}
			for _, tmpl := range templates {
				fmt.Fprintf(a.stdout, StoreTextListRow+FmtNewline,
					tmpl.Name, tmpl.Version, tmpl.UpdatedAt.Format(StoreTimeFormat))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&query.NamePrefix, FlagPrefix, "", UsagePrefix)
	f.IntVar(&query.Limit, FlagLimit, 0, UsageLimit)
	f.IntVar(&query.Offset, FlagOffset, 0, UsageOffset)
	f.StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat+", yaml")
	return cmd
}

func (a *app) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   CmdNameDelete + " <name>",
		Short: HelpDeleteShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.openEngine()
			if err != nil {
				return err
			}
			if err := engine.Delete(cmd.Context(), args[0]); err != nil {
				return templateExit(ErrMsgStorageFailed, err)
			}
			fmt.Fprintf(a.stdout, StoreTextDeleted+FmtNewline, args[0])
			return nil
		},
	}
}

func (a *app) storeDriversCommand() *cobra.Command {
	return &cobra.Command{
		Use:   CmdNameDrivers,
		Short: HelpDriversShort,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintln(a.stdout, strings.Join(stencil.ListStorageDrivers(), FmtNewline))
			return nil
		},
	}
}

func checkStoreFormat(format string) error {
	switch format {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return nil
	}
	return newExitError(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", format))
}

func (a *app) printStructured(format string, v any) error {
	if format == OutputFormatYAML {
		enc := yaml.NewEncoder(a.stdout)
		defer enc.Close()
		if err := enc.Encode(v); err != nil {
			return newExitError(ExitCodeError, ErrMsgWriteOutputFailed, err)
		}
		return nil
	}
	jsonBytes, err := json.MarshalIndent(v, "", JSONIndent)
	if err != nil {
		return newExitError(ExitCodeError, ErrMsgJSONMarshalFailed, err)
	}
	fmt.Fprintln(a.stdout, string(jsonBytes))
	return nil
}
