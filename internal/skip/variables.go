// SPDX-License-Identifier: MPL-2.0

package skip

import (
	"runtime"

	"github.com/condarun/condarun/pkg/cueutil"
	"github.com/condarun/condarun/pkg/platform"
)

// subdirs maps GOOS/GOARCH to conda platform subdirectories.
var subdirs = map[[2]string]string{
	{"linux", "amd64"}:   "linux-64",
	{"linux", "arm64"}:   "linux-aarch64",
	{"linux", "ppc64le"}: "linux-ppc64le",
	{"linux", "s390x"}:   "linux-s390x",
	{"linux", "386"}:     "linux-32",
	{"darwin", "amd64"}:  "osx-64",
	{"darwin", "arm64"}:  "osx-arm64",
	{"windows", "amd64"}: "win-64",
	{"windows", "arm64"}: "win-arm64",
	{"windows", "386"}:   "win-32",
}

// Subdir returns the conda platform name for goos and goarch, or "unknown".
func Subdir(goos, goarch string) string {
	if s, ok := subdirs[[2]string{goos, goarch}]; ok {
		return s
	}
	return "unknown"
}

// PlatformVariables returns the variables skip conditions may reference for the
// given target, such as linux, osx, win, unix, x86_64, aarch64 and target_platform.
func PlatformVariables(goos, goarch string) map[string]any {
	subdir := Subdir(goos, goarch)
	return map[string]any{
		"linux":           goos == platform.Linux,
		"osx":             goos == platform.Darwin,
		"win":             goos == platform.Windows,
		"unix":            goos != platform.Windows,
		"x86":             goarch == "386",
		"x86_64":          goarch == "amd64",
		"aarch64":         goarch == "arm64" && goos != platform.Darwin,
		"arm64":           goarch == "arm64" && goos == platform.Darwin,
		"ppc64le":         goarch == "ppc64le",
		"s390x":           goarch == "s390x",
		"target_platform": subdir,
		"build_platform":  Subdir(runtime.GOOS, runtime.GOARCH),
	}
}

// NewEvaluator returns an evaluator for conditions against the target platform plus
// extra variables, which take precedence.
func NewEvaluator(goos, goarch string, extra map[string]any) (*cueutil.Evaluator, error) {
	vars := PlatformVariables(goos, goarch)
	for k, v := range extra {
		vars[k] = v
	}
	return cueutil.NewEvaluator(vars)
}
