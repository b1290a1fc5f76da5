// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"testing"

	"github.com/condarun/condarun/internal/config"
	"github.com/condarun/condarun/internal/runner"
	"github.com/condarun/condarun/internal/script"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestBackendFlags_Apply(t *testing.T) {
	t.Parallel()

	fromFile := config.RunnerConfig{
		Backend: config.BackendHost,
		Sandbox: config.SandboxConfig{Read: []string{"/etc/ssl"}},
		Container: config.ContainerConfig{
			Engine: "docker",
			Image:  "from-file",
			Mounts: []string{"/srv/cache:ro"},
		},
	}

	tests := []struct {
		name    string
		flags   backendFlags
		want    config.RunnerConfig
		wantErr error
	}{
		{
			name:  "no flags keeps the file",
			flags: backendFlags{},
			want:  fromFile,
		},
		{
			name: "sandbox flags extend the policy",
			flags: backendFlags{
				sandbox:           true,
				allowNetwork:      true,
				allowRead:         []string{"/opt/data"},
				allowReadWrite:    []string{"/var/out"},
				overwriteDefaults: true,
			},
			want: config.RunnerConfig{
				Backend: config.BackendSandbox,
				Sandbox: config.SandboxConfig{
					AllowNetwork:      true,
					Read:              []string{"/etc/ssl", "/opt/data"},
					ReadWrite:         []string{"/var/out"},
					OverwriteDefaults: true,
				},
				Container: fromFile.Container,
			},
		},
		{
			name: "docker flags override image and engine",
			flags: backendFlags{
				docker:             true,
				dockerImage:        "ubuntu:24.04",
				containerEngine:    "podman",
				dockerAllowNetwork: true,
				mounts:             []string{"/home/me/.cache"},
			},
			want: config.RunnerConfig{
				Backend: config.BackendContainer,
				Sandbox: fromFile.Sandbox,
				Container: config.ContainerConfig{
					Engine:       "podman",
					Image:        "ubuntu:24.04",
					AllowNetwork: true,
					Mounts:       []string{"/srv/cache:ro", "/home/me/.cache"},
				},
			},
		},
		{
			name:    "sandbox and docker conflict",
			flags:   backendFlags{sandbox: true, docker: true},
			wantErr: runner.ErrConflictingRunners,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := fromFile
			in.Sandbox.Read = append([]string(nil), fromFile.Sandbox.Read...)
			in.Container.Mounts = append([]string(nil), fromFile.Container.Mounts...)

			got, err := tt.flags.apply(in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("apply() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("apply() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseKeyValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      []string
		want    [][2]string
		wantErr bool
	}{
		{name: "empty", in: nil},
		{
			name: "order and duplicates",
			in:   []string{"B=2", "A=1", "B=3"},
			want: [][2]string{{"B", "3"}, {"A", "1"}},
		},
		{
			name: "value may contain equals",
			in:   []string{"OPTS=-O2 -DX=1", "EMPTY="},
			want: [][2]string{{"OPTS", "-O2 -DX=1"}, {"EMPTY", ""}},
		},
		{name: "missing equals", in: []string{"NOVALUE"}, wantErr: true},
		{name: "missing key", in: []string{"=value"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseKeyValues("env", tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKeyValue) {
					t.Fatalf("parseKeyValues() error = %v, want ErrInvalidKeyValue", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseKeyValues() error = %v", err)
			}

			var pairs [][2]string
			for p := got.Oldest(); p != nil; p = p.Next() {
				pairs = append(pairs, [2]string{p.Key, p.Value})
			}
			if diff := cmp.Diff(tt.want, pairs, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("parseKeyValues() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRedactions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		redact  []string
		mask    []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:   "plain pair",
			redact: []string{"hunter2=[secret]"},
			want:   map[string]string{"hunter2": "[secret]"},
		},
		{
			name:   "source containing equals",
			redact: []string{"dG9rZW4==[token]"},
			want:   map[string]string{"dG9rZW4=": "[token]"},
		},
		{
			name:   "empty replacement",
			redact: []string{"noise="},
			want:   map[string]string{"noise": ""},
		},
		{
			name: "mask keeps the value intact",
			mask: []string{"c2VjcmV0=="},
			want: map[string]string{"c2VjcmV0==": script.RedactedValue},
		},
		{
			name:    "missing separator",
			redact:  []string{"hunter2"},
			wantErr: true,
		},
		{
			name:    "empty source",
			redact:  []string{"=x"},
			wantErr: true,
		},
		{
			name:    "empty mask",
			mask:    []string{""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseRedactions(tt.redact, tt.mask)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKeyValue) {
					t.Fatalf("parseRedactions() error = %v, want ErrInvalidKeyValue", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRedactions() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseRedactions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildFlags_ResolveWorkDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	got, err := (&buildFlags{workDir: dir}).resolveWorkDir()
	if err != nil {
		t.Fatalf("resolveWorkDir() error = %v", err)
	}
	if got != dir {
		t.Errorf("resolveWorkDir() = %q, want %q", got, dir)
	}

	if _, err := (&buildFlags{workDir: dir + "/missing"}).resolveWorkDir(); err == nil {
		t.Error("resolveWorkDir() succeeded for a missing directory")
	}
}
