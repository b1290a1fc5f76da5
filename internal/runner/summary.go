// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var summaryHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var summaryCellStyle = lipgloss.NewStyle().Padding(0, 1)

// Summary renders the selected backend as a table for the build log header.
func (p *PreparedRunner) Summary() string {
	return p.config.Summary()
}

// Summary renders the selected backend as a table.
func (c Configuration) Summary() string {
	switch c.Kind() {
	case KindSandbox:
		if s, ok := c.policy.(fmt.Stringer); ok {
			return s.String()
		}
		return newSummaryTable("Sandbox", "").
			Row("Arguments", strings.Join(c.policy.Args(), " ")).
			String()
	case KindContainer:
		return containerSummary(c.container, c.mounts)
	default:
		return newSummaryTable("Host", "").
			Row("Isolation", "none").
			String()
	}
}

func containerSummary(cfg ContainerConfig, mounts []VolumeMount) string {
	network := "isolated (--network=none)"
	if cfg.AllowNetwork {
		network = "enabled"
	}
	t := newSummaryTable("Container", "").
		Row("Engine", cfg.EngineOrDefault().String()).
		Row("Image", cfg.Image).
		Row("Network", network)
	for i, m := range mounts {
		key := ""
		if i == 0 {
			key = "Mounts"
		}
		value := fmt.Sprintf("%s (%s)", m.Path, m.AccessMode)
		if m.Label != "" {
			value += " " + m.Label
		}
		t.Row(key, value)
	}
	return t.String()
}

func newSummaryTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return summaryHeaderStyle
			}
			return summaryCellStyle
		})
}
