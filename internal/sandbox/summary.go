// SPDX-License-Identifier: MPL-2.0

package sandbox

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// String renders the policy as a table with one row per permission class.
func (c *Configuration) String() string {
	network := "denied"
	if c.AllowNetwork {
		network = "allowed"
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Sandbox", "Paths").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			return cellStyle
		}).
		Row("Network", network).
		Row("Read", listOrNone(c.Read)).
		Row("Read & execute", listOrNone(c.ReadExecute)).
		Row("Read & write", listOrNone(c.ReadWrite)).
		String()
}

func listOrNone(paths []string) string {
	if len(paths) == 0 {
		return "(none)"
	}
	return strings.Join(paths, "\n")
}
