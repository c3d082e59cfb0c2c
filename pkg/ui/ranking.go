package ui

import (
	"fmt"
	"path/filepath"
	"strconv"

	"dankrank/pkg/harvester"
	"dankrank/pkg/manifest"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Ranking prints the ranked entries of m as a table
func (p *Printer) Ranking(m *manifest.Manifest) {
	if m == nil || len(m.Rank) == 0 {
		p.Warning("Nothing ranked")
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.styles.Border).
		Headers("#", "ACCOUNT", "LIKES", "COMMENTS", "FOLLOWERS", "DANKRANK", "FILE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.styles.Header
			}
			return p.styles.Cell
		})

	for _, e := range m.Rank {
		t.Row(
			strconv.Itoa(e.Position),
			e.Insta,
			strconv.FormatInt(e.NumLikes, 10),
			strconv.FormatInt(e.NumComments, 10),
			strconv.FormatInt(e.NumFollowers, 10),
			FormatScore(e.DankRank),
			downloadCell(e.Download),
		)
	}

	fmt.Fprintln(p.w, t.String())
}

// Accounts prints one line per harvested account
func (p *Printer) Accounts(results []harvester.AccountResult) {
	for _, r := range results {
		if r.Err != nil {
			p.Error(fmt.Sprintf("✗ %s", r.Account), r.Err)
			continue
		}
		line := fmt.Sprintf("✓ %s  %s followers, %d pages, %d scored, %d skipped, stop=%s",
			r.Account, strconv.FormatInt(r.Followers, 10), r.Pages, r.Stats.Scored, r.Stats.Skipped, r.Stats.Stop)
		fmt.Fprintln(p.w, p.styles.Success.Render(line))
	}
}

// FormatScore renders a score with four significant digits
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func downloadCell(d *manifest.Download) string {
	if d == nil {
		return "-"
	}
	switch {
	case d.Error != "":
		return string(d.Status) + ": " + d.Error
	case d.Path != "":
		return filepath.Base(d.Path)
	default:
		return string(d.Status)
	}
}
