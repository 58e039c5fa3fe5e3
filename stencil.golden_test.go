package stencil

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/k14s/difflib"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var updateGolden = flag.Bool("update", false, "rewrite golden files")

const (
	goldenDir    = "testdata/golden"
	templatesDir = "testdata/templates"
)

type goldenCase struct {
	Template string         `yaml:"template"`
	Data     map[string]any `yaml:"data"`
}

func TestGolden(t *testing.T) {
	engine, err := NewFilesystemEngine([]string{templatesDir})
	require.NoError(t, err)
	defer engine.Close()

	cases, err := filepath.Glob(filepath.Join(goldenDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	for _, casePath := range cases {
		name := strings.TrimSuffix(filepath.Base(casePath), ".yaml")
		t.Run(name, func(t *testing.T) {
			raw, err := os.ReadFile(casePath)
			require.NoError(t, err)
			var gc goldenCase
			require.NoError(t, yaml.Unmarshal(raw, &gc))

			got, err := engine.Render(context.Background(), gc.Template, gc.Data)
			require.NoError(t, err)

			goldenPath := filepath.Join(goldenDir, name+".golden")
			if *updateGolden {
				require.NoError(t, os.WriteFile(goldenPath, []byte(got), 0o644))
				return
			}
			want, err := os.ReadFile(goldenPath)
			require.NoError(t, err)
			if string(want) != got {
				t.Fatalf("output differs from %s; diff expected...actual:\n%s",
					goldenPath, difflib.PPDiff(strings.Split(string(want), "\n"), strings.Split(got, "\n")))
			}
		})
	}
}
