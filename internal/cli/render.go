package cli

import (
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/and161185/stash/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	hostStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135"))

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Width(76)
)

// renderLink draws a link as a bordered card.
func renderLink(l model.Link) string {
	host := l.URL
	if u, err := url.Parse(l.URL); err == nil && u.Host != "" {
		host = u.Host
	}

	tags := make([]string, len(l.Tags))
	for i, t := range l.Tags {
		tags[i] = "#" + t
	}

	lines := []string{
		titleStyle.Render(l.Title),
		hostStyle.Render(host) + "  " + dateStyle.Render(l.CreatedAt.Local().Format("2006-01-02 15:04")),
		"",
		l.Summary,
	}
	if len(tags) > 0 {
		lines = append(lines, "", tagStyle.Render(strings.Join(tags, " ")))
	}
	lines = append(lines, idStyle.Render(l.ID))
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
