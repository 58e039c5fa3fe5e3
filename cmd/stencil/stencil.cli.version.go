package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// versionInfo is the version report
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// versionsYAML represents the versions.yaml file structure
type versionsYAML struct {
	Project struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"project"`
	Git struct {
		Commit string `yaml:"commit"`
		Branch string `yaml:"branch"`
	} `yaml:"git"`
	Build struct {
		Time      string `yaml:"time"`
		GoVersion string `yaml:"go_version"`
	} `yaml:"build"`
}

func (a *app) versionCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: HelpVersionShort,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			v := getVersionInfo(versionSearchPaths())
			switch format {
			case OutputFormatText:
				fmt.Fprintf(a.stdout, VersionTextTemplate+FmtNewline,
					v.Version, v.Commit, v.Branch, v.BuildTime, v.GoVersion)
			case OutputFormatJSON:
				jsonBytes, _ := json.MarshalIndent(v, "", JSONIndent)
				fmt.Fprintln(a.stdout, string(jsonBytes))
			default:
				return newExitError(ExitCodeUsageError, ErrMsgInvalidFormat, fmt.Errorf("%q", format))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	return cmd
}

// versionSearchPaths lists where versions.yaml may live, nearest first.
func versionSearchPaths() []string {
	return []string{
		VersionsFileName,
		filepath.Join("..", VersionsFileName),
		filepath.Join("..", "..", VersionsFileName),
	}
}

func getVersionInfo(paths []string) *versionInfo {
	v := &versionInfo{
		Version:   VersionUnknown,
		Commit:    VersionUnknown,
		Branch:    VersionUnknown,
		BuildTime: VersionUnknown,
		GoVersion: runtime.Version(),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var vy versionsYAML
		if err := yaml.Unmarshal(data, &vy); err != nil {
			continue
		}

		if vy.Project.Version != "" {
			v.Version = vy.Project.Version
		}
		if vy.Git.Commit != "" {
			v.Commit = vy.Git.Commit
		}
		if vy.Git.Branch != "" {
			v.Branch = vy.Git.Branch
		}
		if vy.Build.Time != "" {
			v.BuildTime = vy.Build.Time
		}
		if vy.Build.GoVersion != "" {
			v.GoVersion = vy.Build.GoVersion
		}
		break
	}
	return v
}
