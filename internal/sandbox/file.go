// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedPolicyFormat is returned for policy files with an unknown extension.
var ErrUnsupportedPolicyFormat = errors.New("unsupported sandbox policy format")

// LoadFile reads a policy from path. The format follows the extension: .json and
// .jsonc (comments allowed in both), .toml, .yaml or .yml. Unknown keys are
// rejected, a leading "~/" expands to the home directory and the result is validated.
func LoadFile(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sandbox policy %s: %w", path, err)
	}
	c, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parsing sandbox policy %s: %w", path, err)
	}
	if err := c.expandHome(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sandbox policy %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a policy in the format named by ext.
func Parse(data []byte, ext string) (*Configuration, error) {
	var c Configuration
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(standardized))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, err
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q (use .json, .jsonc, .toml, .yaml or .yml)", ErrUnsupportedPolicyFormat, ext)
	}
	return &c, nil
}

func (c *Configuration) expandHome() error {
	var home string
	expand := func(paths []string) error {
		for i, p := range paths {
			if p != "~" && !strings.HasPrefix(p, "~/") {
				continue
			}
			if home == "" {
				h, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("expanding %q: %w", p, err)
				}
				home = h
			}
			paths[i] = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
		return nil
	}
	for _, paths := range [][]string{c.Read, c.ReadExecute, c.ReadWrite} {
		if err := expand(paths); err != nil {
			return err
		}
	}
	return nil
}
