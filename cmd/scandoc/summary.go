package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/markdave123-py/scandoc/internal/models"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderSummary tabulates results per label.
func renderSummary(results []models.ScanResult) string {
	rows := [][]string{}
	for _, c := range models.Summarize(results) {
		label := c.Label
		if label == "" {
			label = "(unavailable)"
		}
		rows = append(rows, []string{label, fmt.Sprint(c.Files), fmt.Sprintf("%.3f", c.AvgScore)})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("LABEL", "FILES", "AVG SCORE").
		Rows(rows...).
		String()
}
