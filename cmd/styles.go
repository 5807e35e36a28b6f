package cmd

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/inovacc/datapull/internal/model"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

func statusStyle(s model.RunStatus) lipgloss.Style {
	switch s {
	case model.RunStatusSucceeded:
		return okStyle
	case model.RunStatusFailed:
		return errStyle
	case model.RunStatusGated:
		return warnStyle
	default:
		return dimStyle
	}
}
