//go:build linux

package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/socpower/pwmon/pkg/monitor"
	"github.com/socpower/pwmon/pkg/power"
	"github.com/socpower/pwmon/pkg/types"
)

func topCmd(o *opts) *cobra.Command {
	var refresh time.Duration
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Live full-screen view of the power rails",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMonitor(o)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Start(); err != nil {
				return err
			}
			defer m.Stop()

			p := tea.NewProgram(
				initTopModel(m, refresh),
				tea.WithAltScreen(),
			)
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&refresh, "refresh", 500*time.Millisecond, "screen refresh interval")
	return cmd
}

var (
	colorTitleBg = lipgloss.Color("17")
	colorTitleFg = lipgloss.Color("51")
	colorBorder  = lipgloss.Color("62")
	colorLabel   = lipgloss.Color("252")
	colorDim     = lipgloss.Color("240")
	colorFooter  = lipgloss.Color("235")
	colorOK      = lipgloss.Color("114")
	colorWarn    = lipgloss.Color("220")
	colorCrit    = lipgloss.Color("196")
)

type tickMsg time.Time

type topModel struct {
	mon     *monitor.Monitor
	refresh time.Duration

	snap   power.Snapshot
	stats  power.Stats
	paused bool
	width  int
	height int
}

func initTopModel(m *monitor.Monitor, refresh time.Duration) topModel {
	return topModel{
		mon:     m,
		refresh: refresh,
		snap:    m.Snapshot(),
		stats:   m.Statistics(),
	}
}

func (m topModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m topModel) Init() tea.Cmd {
	return m.tick()
}

func (m topModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.mon.ResetStatistics()
			m.stats = m.mon.Statistics()
		}

	case tickMsg:
		if !m.paused {
			m.snap = m.mon.Snapshot()
			m.stats = m.mon.Statistics()
		}
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m topModel) View() string {
	if m.width == 0 {
		return "  Loading..."
	}

	contentWidth := m.width - 2
	if contentWidth < 50 {
		contentWidth = 50
	}

	var sections []string
	sections = append(sections, m.renderTitle(contentWidth))
	sections = append(sections, m.renderRails(contentWidth))
	sections = append(sections, m.renderAggregates(contentWidth))
	sections = append(sections, m.renderFooter(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m topModel) renderTitle(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("PWMON")

	state := "sampling"
	if m.paused {
		state = "paused"
	}
	info := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("%d channels  %d Hz  %s  %s",
			m.mon.SensorCount(), m.mon.Frequency(), state,
			m.snap.Taken.Format("15:04:05")))

	gap := width - lipgloss.Width(logo) - lipgloss.Width(info) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + info)
}

func (m topModel) renderRails(width int) string {
	var rows []string

	head := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	rows = append(rows, fmt.Sprintf("%s %s %s %s %s %s",
		head.Width(18).Render("rail"),
		head.Width(9).Align(lipgloss.Right).Render("voltage"),
		head.Width(9).Align(lipgloss.Right).Render("current"),
		head.Width(10).Align(lipgloss.Right).Render("power"),
		head.Width(10).Align(lipgloss.Right).Render("avg"),
		head.Width(10).Align(lipgloss.Right).Render("peak"),
	))
	rows = append(rows, lipgloss.NewStyle().
		Foreground(lipgloss.Color("237")).
		Render(strings.Repeat("─", width-4)))

	for i, r := range m.snap.Sensors {
		var st power.ChannelStats
		if i < len(m.stats.Sensors) {
			st = m.stats.Sensors[i]
		}
		rows = append(rows, renderChannelRow(r, st))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m topModel) renderAggregates(width int) string {
	var rows []string
	rows = append(rows, renderChannelRow(m.snap.PS, m.stats.PS))
	rows = append(rows, renderChannelRow(m.snap.PL, m.stats.PL))
	rows = append(rows, renderChannelRow(m.snap.Total, m.stats.Total))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderChannelRow(r power.Reading, st power.ChannelStats) string {
	label := lipgloss.NewStyle().
		Foreground(colorLabel).
		Bold(true).
		Width(18).
		Render(truncate(r.Name, 18))

	if !r.Online {
		off := lipgloss.NewStyle().Foreground(colorDim).Render("offline")
		return label + " " + off
	}

	val := lipgloss.NewStyle().Width(9).Align(lipgloss.Right)
	volt := val.Render(types.Volts(r.Voltage).String())
	curr := val.Render(types.Amps(r.Current).String())

	pw := lipgloss.NewStyle().
		Foreground(powerColor(r)).
		Width(10).
		Align(lipgloss.Right).
		Render(types.Watts(r.Power).String())

	statVal := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(10).Align(lipgloss.Right)
	avg := statVal.Render(fmt.Sprintf("%.3f W", st.Power.Avg))
	peak := statVal.Render(fmt.Sprintf("%.3f W", st.Power.Max))

	return fmt.Sprintf("%s %s %s %s %s %s", label, volt, curr, pw, avg, peak)
}

func powerColor(r power.Reading) lipgloss.Color {
	switch {
	case r.CritPower > 0 && r.Power >= r.CritPower:
		return colorCrit
	case r.WarnPower > 0 && r.Power >= r.WarnPower:
		return colorWarn
	default:
		return colorOK
	}
}

func (m topModel) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  space") + keyS.Render(":pause") +
		dimS.Render("  r") + keyS.Render(":reset stats")

	return lipgloss.NewStyle().
		Background(colorFooter).
		Width(width).
		Padding(0, 1).
		Render(keys)
}

func truncate(s string, w int) string {
	if len(s) <= w {
		return s
	}
	if w <= 3 {
		return s[:w]
	}
	return s[:w-1] + "…"
}
