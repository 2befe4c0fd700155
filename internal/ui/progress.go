package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"knox/internal/buildpipeline"
)

// Доля шкалы прогресса, которую закрывает каждый этап.
var stageWeight = map[buildpipeline.Stage]float64{
	buildpipeline.StageResolve: 0.3,
	buildpipeline.StageCheck:   0.4,
	buildpipeline.StageCodegen: 0.2,
	buildpipeline.StageWrite:   0.1,
}

type progressModel struct {
	title      string
	events     <-chan buildpipeline.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []moduleItem
	index      map[string]int
	stages     map[buildpipeline.Stage]buildpipeline.Status
	stageLabel string
	failure    error
	width      int
	done       bool
}

type moduleItem struct {
	name   string
	status string
	stage  buildpipeline.Stage
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders pipeline progress.
// Modules are added as their parse events arrive; the model quits when
// events is closed.
func NewProgressModel(title string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		stages:  make(map[buildpipeline.Stage]buildpipeline.Status),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(buildpipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.items {
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		fmt.Fprintf(&b, "  %s %s\n", statusStyled, truncate(item.name, nameWidth))
	}
	if m.failure != nil {
		b.WriteString("\n")
		b.WriteString(styleStatus("error").Render(truncate(m.failure.Error(), m.width-2)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(m.percent()))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev buildpipeline.Event) tea.Cmd {
	if ev.Module == "" {
		m.stages[ev.Stage] = ev.Status
		if label := statusLabel(ev.Stage, ev.Status); label != "" {
			m.stageLabel = label
		}
		if ev.Status == buildpipeline.StatusError && ev.Err != nil {
			m.failure = ev.Err
		}
		return m.prog.SetPercent(m.percent())
	}
	idx, ok := m.index[ev.Module]
	if !ok {
		idx = len(m.items)
		m.index[ev.Module] = idx
		m.items = append(m.items, moduleItem{name: ev.Module})
	}
	item := &m.items[idx]
	// ошибка модуля не перетирается поздними событиями
	if item.status != "error" {
		item.status = moduleLabel(ev.Stage, ev.Status)
		item.stage = ev.Stage
	}
	return m.prog.SetPercent(m.percent())
}

// percent sums finished stages; check advances per module.
func (m *progressModel) percent() float64 {
	total := 0.0
	for stage, w := range stageWeight {
		switch m.stages[stage] {
		case buildpipeline.StatusDone, buildpipeline.StatusError:
			total += w
		case buildpipeline.StatusWorking:
			if stage == buildpipeline.StageCheck && len(m.items) > 0 {
				checked := 0
				for _, item := range m.items {
					if item.stage == buildpipeline.StageCheck {
						checked++
					}
				}
				total += w * float64(checked) / float64(len(m.items))
			}
		}
	}
	return min(total, 1.0)
}

func moduleLabel(stage buildpipeline.Stage, status buildpipeline.Status) string {
	if status == buildpipeline.StatusError {
		return "error"
	}
	switch stage {
	case buildpipeline.StageParse:
		return "parsed"
	case buildpipeline.StageCheck:
		return "checked"
	default:
		return string(status)
	}
}

func statusLabel(stage buildpipeline.Stage, status buildpipeline.Status) string {
	switch status {
	case buildpipeline.StatusQueued:
		return "queued"
	case buildpipeline.StatusError:
		return "error"
	case buildpipeline.StatusWorking:
		return stageLabel(stage)
	default:
		return ""
	}
}

func stageLabel(stage buildpipeline.Stage) string {
	switch stage {
	case buildpipeline.StageParse, buildpipeline.StageResolve:
		return "resolving"
	case buildpipeline.StageCheck:
		return "checking"
	case buildpipeline.StageCodegen:
		return "generating"
	case buildpipeline.StageWrite:
		return "writing"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "checked", "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "parsed":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
