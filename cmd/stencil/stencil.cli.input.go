package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes content to stdout or, atomically, to a file
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, FilePermissions)
}

// loadData reads render data from a file, whose extension picks the format,
// or from an inline JSON string. No data yields an empty map.
func loadData(jsonStr, filePath string) (map[string]any, error) {
	switch {
	case filePath != "":
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		return decodeData(raw, strings.ToLower(filepath.Ext(filePath)))
	case jsonStr != "":
		return decodeData([]byte(jsonStr), DataExtJSON)
	default:
		return make(map[string]any), nil
	}
}

func decodeData(raw []byte, ext string) (map[string]any, error) {
	var data map[string]any
	var err error
	switch ext {
	case DataExtJSON:
		err = json.Unmarshal(raw, &data)
	case DataExtYAML, DataExtYML:
		err = yaml.Unmarshal(raw, &data)
	case DataExtTOML:
		_, err = toml.Decode(string(raw), &data)
	default:
		return nil, fmt.Errorf("%s %q", ErrMsgUnknownDataFormat, ext)
	}
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errors.New(ErrMsgDataNotObject)
		}
		return nil, err
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}

// parseMetadata turns key=value pairs into a map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, MetaSeparator)
		if !ok || key == "" {
			return nil, fmt.Errorf("%s: %q", ErrMsgInvalidMeta, pair)
		}
		meta[key] = value
	}
	return meta, nil
}
