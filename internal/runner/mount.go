// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// ReadOnly mounts a host path into the container without write access.
	ReadOnly AccessMode = "ro"
	// ReadWrite mounts a host path into the container with write access.
	ReadWrite AccessMode = "rw"
)

type (
	// AccessMode is the permission a mounted path is exposed with.
	AccessMode string

	// VolumeMount is a host path exposed at the identical path inside a container.
	VolumeMount struct {
		Path       string
		AccessMode AccessMode
		// Label is shown in summaries only and never affects the container arguments.
		Label string
	}
)

// String returns the human readable form of the access mode.
func (m AccessMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	default:
		return string(m)
	}
}

// Validate returns an error wrapping ErrInvalidAccessMode for unknown modes.
func (m AccessMode) Validate() error {
	switch m {
	case ReadOnly, ReadWrite:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be %q or %q)", ErrInvalidAccessMode, string(m), ReadOnly, ReadWrite)
	}
}

// ReadOnlyMount returns a read-only mount of path.
func ReadOnlyMount(path string) VolumeMount {
	return VolumeMount{Path: path, AccessMode: ReadOnly}
}

// ReadWriteMount returns a read-write mount of path.
func ReadWriteMount(path string) VolumeMount {
	return VolumeMount{Path: path, AccessMode: ReadWrite}
}

// WithLabel returns a copy of the mount carrying a display label.
func (v VolumeMount) WithLabel(label string) VolumeMount {
	v.Label = label
	return v
}

// Spec renders the value passed to the engine's -v flag.
func (v VolumeMount) Spec() string {
	spec := v.Path + ":" + v.Path
	if v.AccessMode == ReadOnly {
		spec += ":ro"
	}
	return spec
}

// Validate checks that the mount has a path and a known access mode.
func (v VolumeMount) Validate() error {
	if strings.TrimSpace(v.Path) == "" {
		return ErrEmptyMountPath
	}
	return v.AccessMode.Validate()
}

// ParseVolumeMount parses "path" or "path:ro" / "path:rw". A bare path is mounted read-write.
func ParseVolumeMount(s string) (VolumeMount, error) {
	path, mode := s, ReadWrite
	if idx := strings.LastIndex(s, ":"); idx > 0 {
		switch suffix := AccessMode(s[idx+1:]); suffix {
		case ReadOnly, ReadWrite:
			path, mode = s[:idx], suffix
		}
	}
	m := VolumeMount{Path: path, AccessMode: mode}
	if err := m.Validate(); err != nil {
		return VolumeMount{}, err
	}
	return m, nil
}

// ResolveMounts computes the container mount set for a work directory and extra mounts.
//
// The work directory is mounted read-write. Every path is canonicalized on a best-effort
// basis and mounted together with its parent directory, which is always read-only; the
// engine layers a read-write child on top of it. A path reached through a symlink is also
// mounted as given, so arguments such as -w keep working inside the container. Duplicate
// paths collapse with read-write winning over read-only. The result is sorted by path, so
// resolving the same input twice yields the same list.
func ResolveMounts(workDir string, extra []VolumeMount) []VolumeMount {
	resolved := make(map[string]VolumeMount)
	add := func(path string, mode AccessMode, label string) {
		cur, ok := resolved[path]
		if !ok {
			resolved[path] = VolumeMount{Path: path, AccessMode: mode, Label: label}
			return
		}
		if mode == ReadWrite {
			cur.AccessMode = ReadWrite
		}
		if cur.Label == "" {
			cur.Label = label
		}
		resolved[path] = cur
	}

	candidates := make([]VolumeMount, 0, len(extra)+1)
	if strings.TrimSpace(workDir) != "" {
		candidates = append(candidates, ReadWriteMount(workDir).WithLabel("work directory"))
	}
	candidates = append(candidates, extra...)

	for _, m := range candidates {
		if strings.TrimSpace(m.Path) == "" {
			continue
		}
		mode := m.AccessMode
		if mode != ReadOnly {
			mode = ReadWrite
		}
		for _, path := range mountPaths(m.Path) {
			add(path, mode, m.Label)
			add(filepath.Dir(path), ReadOnly, "")
		}
	}

	mounts := make([]VolumeMount, 0, len(resolved))
	for _, path := range slices.Sorted(maps.Keys(resolved)) {
		mounts = append(mounts, resolved[path])
	}
	return mounts
}

// mountPaths returns the canonical form of path, followed by its absolute
// form when a symlink made the two differ.
func mountPaths(path string) []string {
	canonical := canonicalPath(path)
	abs, err := filepath.Abs(path)
	if err != nil || abs == canonical {
		return []string{canonical}
	}
	return []string{canonical, abs}
}

// canonicalPath makes path absolute and resolves symlinks. A path that cannot be
// resolved, typically because it does not exist yet, is returned cleaned.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
