// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/condarun/condarun/internal/runner"
	"github.com/condarun/condarun/pkg/platform"
)

// Launcher flags understood by rattler-sandbox.
const (
	FlagRead         = "--fs-read"
	FlagReadExecute  = "--fs-exec-and-read"
	FlagReadWrite    = "--fs-write-and-read"
	FlagAllowNetwork = "--network"
)

// ErrRelativePath is returned when a policy path is not absolute.
var ErrRelativePath = errors.New("sandbox paths must be absolute")

var _ runner.SandboxPolicy = (*Configuration)(nil)

type (
	// Configuration is a rattler-sandbox policy.
	Configuration struct {
		AllowNetwork bool     `json:"allow_network" toml:"allow_network" yaml:"allow_network"`
		Read         []string `json:"read"          toml:"read"          yaml:"read"`
		ReadExecute  []string `json:"read_execute"  toml:"read_execute"  yaml:"read_execute"`
		ReadWrite    []string `json:"read_write"    toml:"read_write"    yaml:"read_write"`
	}

	// Overrides are command line additions to a policy.
	Overrides struct {
		AllowNetwork bool
		Read         []string
		ReadExecute  []string
		ReadWrite    []string
		// OverwriteDefaults starts from an empty policy instead of the platform defaults.
		OverwriteDefaults bool
	}
)

// Default returns the default policy for the current platform.
func Default() *Configuration {
	return DefaultFor(platform.Current())
}

// DefaultFor returns the default policy for goos. Network access is denied.
func DefaultFor(goos string) *Configuration {
	switch goos {
	case platform.Darwin:
		return &Configuration{
			Read:        []string{"/"},
			ReadExecute: []string{"/bin", "/usr/bin", "/usr/libexec", "/System/Library", "/Library/Developer"},
			ReadWrite:   []string{"/tmp", "/private/tmp", "/var/folders"},
		}
	case platform.Linux:
		return &Configuration{
			Read:        []string{"/", "/etc", "/proc", "/sys"},
			ReadExecute: []string{"/bin", "/usr/bin", "/lib", "/lib64", "/usr/lib", "/usr/lib64"},
			ReadWrite:   []string{"/tmp", "/dev/null", "/dev/shm"},
		}
	default:
		return &Configuration{}
	}
}

// New builds a policy for goos from the platform defaults and o.
func New(goos string, o Overrides) *Configuration {
	c := &Configuration{}
	if !o.OverwriteDefaults {
		c = DefaultFor(goos)
	}
	c.AllowNetwork = c.AllowNetwork || o.AllowNetwork
	c.Read = appendUnique(c.Read, o.Read...)
	c.ReadExecute = appendUnique(c.ReadExecute, o.ReadExecute...)
	c.ReadWrite = appendUnique(c.ReadWrite, o.ReadWrite...)
	return c
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	return &Configuration{
		AllowNetwork: c.AllowNetwork,
		Read:         slices.Clone(c.Read),
		ReadExecute:  slices.Clone(c.ReadExecute),
		ReadWrite:    slices.Clone(c.ReadWrite),
	}
}

// WithWorkDir returns a copy of the policy that may also write to dir.
func (c *Configuration) WithWorkDir(dir string) runner.SandboxPolicy {
	bound := c.Clone()
	if dir != "" {
		bound.ReadWrite = appendUnique(bound.ReadWrite, dir)
	}
	return bound
}

// Args renders the policy as rattler-sandbox flags: reads, then read-execute,
// then read-write paths, then the network flag.
func (c *Configuration) Args() []string {
	args := make([]string, 0, 2*(len(c.Read)+len(c.ReadExecute)+len(c.ReadWrite))+1)
	for _, p := range c.Read {
		args = append(args, FlagRead, p)
	}
	for _, p := range c.ReadExecute {
		args = append(args, FlagReadExecute, p)
	}
	for _, p := range c.ReadWrite {
		args = append(args, FlagReadWrite, p)
	}
	if c.AllowNetwork {
		args = append(args, FlagAllowNetwork)
	}
	return args
}

// Validate checks that every path is absolute.
func (c *Configuration) Validate() error {
	var errs []error
	check := func(kind string, paths []string) {
		for _, p := range paths {
			if strings.TrimSpace(p) == "" || !filepath.IsAbs(p) {
				errs = append(errs, fmt.Errorf("%w: %s path %q", ErrRelativePath, kind, p))
			}
		}
	}
	check("read", c.Read)
	check("read_execute", c.ReadExecute)
	check("read_write", c.ReadWrite)
	return errors.Join(errs...)
}

func appendUnique(dst []string, paths ...string) []string {
	for _, p := range paths {
		if !slices.Contains(dst, p) {
			dst = append(dst, p)
		}
	}
	return dst
}
