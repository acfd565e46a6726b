// Package present renders profiles for the terminal.
package present

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kalambet/gitprofile/internal/storage"
)

// Row is one rendered profile line.
type Row struct {
	Alias  string
	Name   string
	Email  string
	Active bool
}

// Rows converts profiles to table rows, marking the one whose email equals
// currentEmail. An empty currentEmail marks nothing.
func Rows(profiles []storage.Profile, currentEmail string) []Row {
	rows := make([]Row, len(profiles))
	for i, p := range profiles {
		rows[i] = Row{
			Alias:  p.Alias,
			Name:   p.Name,
			Email:  p.Email,
			Active: currentEmail != "" && p.Email == currentEmail,
		}
	}
	return rows
}

// Table renders profiles with lipgloss.
type Table struct {
	header lipgloss.Style
	cells  [3]lipgloss.Style
	border lipgloss.Style
}

// NewTable builds a Table whose styles are bound to r. Pass a renderer
// with an ASCII color profile to get plain text.
func NewTable(r *lipgloss.Renderer) *Table {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	cell := r.NewStyle().Padding(0, 1)
	return &Table{
		header: cell.Bold(true),
		cells: [3]lipgloss.Style{
			cell.Foreground(lipgloss.Color("3")), // alias: yellow
			cell.Foreground(lipgloss.Color("2")), // name: green
			cell.Foreground(lipgloss.Color("4")), // email: blue
		},
		border: r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Render draws the Alias/Name/Email table in list order, emphasizing the
// active profile in bold italics.
func (t *Table) Render(profiles []storage.Profile, currentEmail string) string {
	rows := Rows(profiles, currentEmail)

	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.Alias, r.Name, r.Email}
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(t.border).
		Headers("Alias", "Name", "Email").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.header
			}
			s := t.cells[col%len(t.cells)]
			if row >= 0 && row < len(rows) && rows[row].Active {
				s = s.Bold(true).Italic(true)
			}
			return s
		})

	return tbl.String()
}
