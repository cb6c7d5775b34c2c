package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(24)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// renderReport colours a validation report: the title as a header,
// sections with entries in yellow and the verdict in green or red.
func renderReport(ok bool, report string) string {
	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case i == 0:
			b.WriteString(headerStyle.Render(line))
		case strings.HasPrefix(trimmed, "result:"):
			if ok {
				b.WriteString(okStyle.Render(line))
			} else {
				b.WriteString(errorStyle.Render(line))
			}
		case strings.HasSuffix(trimmed, ": none"):
			b.WriteString(dimStyle.Render(line))
		case strings.HasSuffix(trimmed, "):"):
			b.WriteString(warnStyle.Render(line))
		default:
			b.WriteString(valueStyle.Render(line))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func renderValues(title string, values map[string]float64) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteByte('\n')
	for _, name := range names {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(name))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.6g", values[name])))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderField(label string, value any) string {
	return "  " + labelStyle.Render(label) + valueStyle.Render(fmt.Sprint(value))
}
