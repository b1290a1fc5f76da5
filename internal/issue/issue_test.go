// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestIdsAreSequential(t *testing.T) {
	t.Parallel()

	values := Values()
	for i, iss := range values {
		if want := Id(i + 1); iss.Id() != want {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, iss.Id(), want)
		}
	}
	if len(values) != int(ScriptExecutionFailedId) {
		t.Errorf("catalog has %d entries, want %d", len(values), ScriptExecutionFailedId)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	for _, id := range []Id{SandboxToolNotFoundId, ContainerEngineNotFoundId, UnsupportedPlatformId} {
		iss := Get(id)
		if iss == nil {
			t.Fatalf("Get(%d) = nil", id)
		}
		if strings.TrimSpace(string(iss.MarkdownMsg())) == "" {
			t.Errorf("Get(%d) has empty guidance", id)
		}
	}

	if Get(Id(999)) != nil {
		t.Error("Get(999) should be nil")
	}
}

func TestSandboxIssueNamesInstallMethod(t *testing.T) {
	t.Parallel()

	md := string(Get(SandboxToolNotFoundId).MarkdownMsg())
	if !strings.Contains(md, "pixi global install rattler-sandbox") {
		t.Errorf("sandbox guidance should name the install command:\n%s", md)
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	t.Parallel()

	iss := Get(ContainerEngineNotFoundId)
	links := iss.ExtLinks()
	if len(links) == 0 {
		t.Fatal("expected external links")
	}
	links[0] = "mutated"
	if iss.ExtLinks()[0] == "mutated" {
		t.Error("ExtLinks must return a copy")
	}
}

//nolint:paralleltest // swaps the package-level renderer
func TestIssue_Render(t *testing.T) {
	original := render
	defer func() { render = original }()

	var gotInput, gotStyle string
	render = func(in, stylePath string) (string, error) {
		gotInput, gotStyle = in, stylePath
		return "rendered", nil
	}

	out, err := Get(ContainerEngineNotFoundId).Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "rendered" || gotStyle != "dark" {
		t.Errorf("Render() = %q with style %q", out, gotStyle)
	}
	if !strings.Contains(gotInput, "## See also") || !strings.Contains(gotInput, "https://podman.io/docs/installation") {
		t.Errorf("rendered input should include links:\n%s", gotInput)
	}
}
