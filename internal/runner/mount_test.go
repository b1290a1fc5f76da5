// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAccessMode_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode    AccessMode
		wantErr bool
	}{
		{ReadOnly, false},
		{ReadWrite, false},
		{"", true},
		{"RO", true},
		{"rwx", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()
			err := tt.mode.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAccessMode) {
					t.Errorf("Validate() = %v, want ErrInvalidAccessMode", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestVolumeMount_Spec(t *testing.T) {
	t.Parallel()

	if got := ReadOnlyMount("/data").Spec(); got != "/data:/data:ro" {
		t.Errorf("read-only Spec() = %q", got)
	}
	if got := ReadWriteMount("/work").Spec(); got != "/work:/work" {
		t.Errorf("read-write Spec() = %q", got)
	}
	if got := ReadWriteMount("/work").WithLabel("cache").Spec(); got != "/work:/work" {
		t.Errorf("labels must not change Spec(), got %q", got)
	}
}

func TestParseVolumeMount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    VolumeMount
		wantErr error
	}{
		{in: "/data", want: ReadWriteMount("/data")},
		{in: "/data:ro", want: ReadOnlyMount("/data")},
		{in: "/data:rw", want: ReadWriteMount("/data")},
		{in: "/odd:name", want: ReadWriteMount("/odd:name")},
		{in: "", wantErr: ErrEmptyMountPath},
		{in: "  ", wantErr: ErrEmptyMountPath},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseVolumeMount(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseVolumeMount(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVolumeMount(%q) unexpected error: %v", tt.in, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseVolumeMount(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestResolveMounts_NonexistentPaths(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "missing")
	work := filepath.Join(base, "work")
	data := filepath.Join(base, "data")

	got := ResolveMounts(work, []VolumeMount{ReadOnlyMount(data)})

	want := []VolumeMount{
		{Path: base, AccessMode: ReadOnly},
		{Path: data, AccessMode: ReadOnly},
		{Path: work, AccessMode: ReadWrite, Label: "work directory"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveMounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveMounts_ReadWriteWins(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "absent")
	shared := filepath.Join(root, "shared")

	got := ResolveMounts("", []VolumeMount{
		ReadOnlyMount(shared),
		ReadWriteMount(shared),
		ReadOnlyMount(filepath.Join(root, "other")),
	})

	for _, m := range got {
		if m.Path == shared && m.AccessMode != ReadWrite {
			t.Errorf("%s resolved as %s, want read-write", shared, m.AccessMode)
		}
		if m.Path == root && m.AccessMode != ReadOnly {
			t.Errorf("parent %s resolved as %s, want read-only", root, m.AccessMode)
		}
	}
	if len(got) != 3 {
		t.Errorf("ResolveMounts() returned %d mounts, want 3: %+v", len(got), got)
	}
}

func TestResolveMounts_Deterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	extra := []VolumeMount{
		ReadOnlyMount(filepath.Join(dir, "z")),
		ReadOnlyMount(filepath.Join(dir, "a")),
		ReadWriteMount(filepath.Join(dir, "m", "n")),
	}
	reversed := []VolumeMount{extra[2], extra[1], extra[0]}

	first := ResolveMounts(filepath.Join(dir, "work"), extra)
	second := ResolveMounts(filepath.Join(dir, "work"), reversed)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ResolveMounts() depends on input order (-first +second):\n%s", diff)
	}

	for i := 1; i < len(first); i++ {
		if first[i-1].Path >= first[i].Path {
			t.Errorf("mounts not strictly sorted: %q before %q", first[i-1].Path, first[i].Path)
		}
	}
}

func TestResolveMounts_ParentsPresent(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "absent")
	inputs := []string{filepath.Join(base, "a", "b"), filepath.Join(base, "c")}
	got := ResolveMounts("", []VolumeMount{ReadOnlyMount(inputs[0]), ReadOnlyMount(inputs[1])})

	paths := make(map[string]bool, len(got))
	for _, m := range got {
		paths[m.Path] = true
	}
	for _, in := range inputs {
		if !paths[in] {
			t.Errorf("%s missing from %+v", in, got)
		}
		if !paths[filepath.Dir(in)] {
			t.Errorf("parent of %s missing from %+v", in, got)
		}
	}
}

func TestResolveMounts_FollowsSymlinks(t *testing.T) {
	t.Parallel()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	target := filepath.Join(dir, "target")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got := ResolveMounts("", []VolumeMount{ReadOnlyMount(link)})

	want := []VolumeMount{
		{Path: dir, AccessMode: ReadOnly},
		{Path: link, AccessMode: ReadOnly},
		{Path: target, AccessMode: ReadOnly},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveMounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveMounts_ParentsReadOnly(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "builds")
	work := filepath.Join(base, "pkg", "work")

	got := ResolveMounts(work, nil)

	want := []VolumeMount{
		{Path: filepath.Join(base, "pkg"), AccessMode: ReadOnly},
		{Path: work, AccessMode: ReadWrite, Label: "work directory"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveMounts() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveMounts_SymlinkedWorkDir(t *testing.T) {
	t.Parallel()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	target := filepath.Join(dir, "real", "work")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	mounts := ResolveMounts(link, nil)
	want := []VolumeMount{
		{Path: dir, AccessMode: ReadOnly},
		{Path: link, AccessMode: ReadWrite, Label: "work directory"},
		{Path: filepath.Dir(target), AccessMode: ReadOnly},
		{Path: target, AccessMode: ReadWrite, Label: "work directory"},
	}
	if diff := cmp.Diff(want, mounts); diff != "" {
		t.Errorf("ResolveMounts() mismatch (-want +got):\n%s", diff)
	}

	r := NewContainerRunner(ContainerConfig{Image: "img"}, WithGOOS("linux"), WithUserIDs(func() (int, int) { return 1, 1 }))
	args := r.RunArgs(&ExecutionContext{CommandArgs: []string{"true"}, WorkDir: link, Mounts: mounts})
	if !slices.Contains(args, link+":"+link) {
		t.Errorf("RunArgs() = %q, -w %s has no matching mount", args, link)
	}
}

func TestResolveMounts_SkipsEmptyPaths(t *testing.T) {
	t.Parallel()

	if got := ResolveMounts("", []VolumeMount{{Path: " ", AccessMode: ReadOnly}}); len(got) != 0 {
		t.Errorf("ResolveMounts() = %+v, want empty", got)
	}
}
