// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

const (
	SandboxToolNotFoundId Id = iota + 1
	ContainerEngineNotFoundId
	UnsupportedPlatformId
	ConflictingRunnersId
	ContainerImageRequiredId
	ConfigLoadFailedId
	BuildLogUnavailableId
	ScriptExecutionFailedId
)

type (
	// Id identifies a catalog entry.
	//
	//nolint:revive // kept short; used as issue.Id at call sites
	Id int

	// MarkdownMsg is Markdown guidance rendered for the user.
	MarkdownMsg string

	// HttpLink is a documentation link attached to an issue.
	//
	//nolint:revive // HttpLink mirrors how the links are referred to in docs
	HttpLink string

	// Issue is a catalog entry with Markdown remediation guidance.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

// Id returns the catalog id.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guidance plus a "See also" section with glamour.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	sandboxToolNotFoundIssue = &Issue{
		id: SandboxToolNotFoundId,
		mdMsg: `
# rattler-sandbox not found!

The sandbox runner executes build scripts through the ` + "`rattler-sandbox`" + `
executable, and it could not be located on your PATH.

## Things you can try:
- Install it globally with pixi:
~~~
$ pixi global install rattler-sandbox
~~~
- Make sure the pixi global bin directory is on your PATH
- Run without the sandbox (drop ` + "`--sandbox`" + `) or use the container runner`,
		extLinks: []HttpLink{"https://pixi.sh/latest/global_tools/introduction/"},
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not available!

You selected the container runner, but the container engine either is not
installed or did not answer a version query.

## Things you can try:
- Install Docker: https://docs.docker.com/get-docker/
- Or install Podman and select it:
~~~
$ condarun run --docker --container-engine podman --docker-image <image> -- ...
~~~
- Make sure the engine daemon is running:
~~~
$ docker version
~~~`,
		extLinks: []HttpLink{"https://docs.docker.com/get-docker/", "https://podman.io/docs/installation"},
	}

	unsupportedPlatformIssue = &Issue{
		id: UnsupportedPlatformId,
		mdMsg: `
# Container runner not supported on this host!

Windows cannot reliably run Linux-target build containers with the
same-path bind mounts the container runner relies on.

## Things you can try:
- Run the build on a Linux or macOS host
- Use the host runner on this machine`,
	}

	conflictingRunnersIssue = &Issue{
		id: ConflictingRunnersId,
		mdMsg: `
# Conflicting runner selection!

The sandbox runner and the container runner are mutually exclusive.

## Things you can try:
- Pass only one of ` + "`--sandbox`" + ` or ` + "`--docker`" + `
- Check ` + "`runner.backend`" + ` in your config.cue`,
	}

	containerImageRequiredIssue = &Issue{
		id: ContainerImageRequiredId,
		mdMsg: `
# Container image required!

The container runner needs an image to run the build in.

## Things you can try:
- Pass an image:
~~~
$ condarun run --docker --docker-image debian:stable-slim -- ./build.sh
~~~
- Or set ` + "`runner.container.image`" + ` in your config.cue`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the CUE syntax of your config file
- Show the effective configuration:
~~~
$ condarun config show
~~~`,
	}

	buildLogUnavailableIssue = &Issue{
		id: BuildLogUnavailableId,
		mdMsg: `
# Build log could not be opened!

Every command appends its output to ` + "`conda_build.log`" + ` in the working
directory, and that file could not be created or opened for appending.

## Things you can try:
- Check that the working directory exists and is writable
- Check free disk space`,
	}

	scriptExecutionFailedIssue = &Issue{
		id: ScriptExecutionFailedId,
		mdMsg: `
# Build script failed!

## Things you can try:
- Inspect ` + "`conda_build.log`" + ` in the working directory
- Re-run the generated script by hand:
~~~
$ cd <work_dir> && bash -x conda_build.sh
~~~`,
	}

	issues = map[Id]*Issue{
		sandboxToolNotFoundIssue.Id():     sandboxToolNotFoundIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		unsupportedPlatformIssue.Id():     unsupportedPlatformIssue,
		conflictingRunnersIssue.Id():      conflictingRunnersIssue,
		containerImageRequiredIssue.Id():  containerImageRequiredIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		buildLogUnavailableIssue.Id():     buildLogUnavailableIssue,
		scriptExecutionFailedIssue.Id():   scriptExecutionFailedIssue,
	}
)

// Values returns all catalog entries ordered by id.
func Values() []*Issue {
	ids := slices.Sorted(maps.Keys(issues))
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
