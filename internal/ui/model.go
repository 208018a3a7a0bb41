package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/nconklindev/modelswap/internal/config"
	"github.com/nconklindev/modelswap/internal/pipeline"
	"github.com/nconklindev/modelswap/internal/reconcile"
	"github.com/nconklindev/modelswap/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

type state int

const (
	stateFilePicker state = iota
	stateProcessing
	stateComplete
	stateError
)

// MaxListedReplacements caps the replacement lines shown on the summary.
const MaxListedReplacements = 12

type Model struct {
	state        state
	cfg          *config.Config
	logger       *zap.Logger
	filepicker   filepicker.Model
	stage        string
	result       *types.RunResult
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan types.Progress
	resultChan   chan runResultMsg
}

type runResultMsg struct {
	result *types.RunResult
	err    error
}

type runCompleteMsg struct {
	result *types.RunResult
	err    error
}

type progressMsg types.Progress

type waitForProgressMsg struct{}

type startRunMsg struct{}

// InitialModel starts on the file picker when pickMain is set, otherwise it
// runs the configured reconciliation straight away.
func InitialModel(cfg *config.Config, logger *zap.Logger, pickMain bool) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".xlsx", ".xlsm"}
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(amber)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(amber)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(muted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(muted)

	st := stateProcessing
	if pickMain {
		st = stateFilePicker
	}

	return Model{
		state:      st,
		cfg:        cfg,
		logger:     logger,
		filepicker: fp,
		progress:   progress.New(progress.WithGradient("#FF8C42", "#FF9F5A")),
	}
}

func (m Model) Init() tea.Cmd {
	if m.state == stateFilePicker {
		return m.filepicker.Init()
	}
	return func() tea.Msg { return startRunMsg{} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker, stateProcessing:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}
		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case startRunMsg:
		m.state = stateProcessing
		return m.startRun()

	case runCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			m.stage = msg.Stage
			cmd := m.progress.SetPercent(msg.Fraction)
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.cfg.Main.Path = path
			return m, func() tea.Msg { return startRunMsg{} }
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) startRun() (Model, tea.Cmd) {
	m.progressChan = make(chan types.Progress, 16)
	m.resultChan = make(chan runResultMsg, 1)

	progressChan := m.progressChan
	resultChan := m.resultChan
	cfg := m.cfg
	logger := m.logger

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				result, err := pipeline.Run(cfg, logger, progressChan)

				resultChan <- runResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan types.Progress, resultChan chan runResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return runCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

// Err is the fatal error the run ended with, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("⇄ modelswap"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Select the workbook holding sheet %q (%s → %s)",
		m.cfg.Main.Sheet, m.cfg.SourceVariation, m.cfg.TargetVariation)))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("⇄ Processing..."))
	s.WriteString("\n\n")
	stage := m.stage
	if stage == "" {
		stage = "Starting"
	}
	s.WriteString(stage)
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Reconciliation Complete!"))
	s.WriteString("\n\n")
	s.WriteString(Summary(m.result, m.cfg, m.width))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))

	return BoxStyle.Render(s.String())
}

// Summary renders the end-of-run report. It is shared by the TUI and the
// plain CLI output; width <= 0 prints paths and replacements untruncated.
func Summary(r *types.RunResult, cfg *config.Config, width int) string {
	var s strings.Builder

	s.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Input: "), truncatePath(cfg.Main.String(), width)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s", truncatePath(r.OutputFile, width))))
	s.WriteString("\n")
	if r.ReportFile != "" {
		s.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Report:"), truncatePath(r.ReportFile, width)))
	}
	s.WriteString("\n")

	s.WriteString(fmt.Sprintf("Translation pairs (%s → %s): %d\n", cfg.SourceVariation, cfg.TargetVariation, len(r.Pairs)))
	for _, p := range r.Pairs {
		s.WriteString(fmt.Sprintf("  %s: %s → %s\n", p.Code, p.Source, p.Target))
	}

	for _, d := range r.Duplicates {
		s.WriteString(WarnStyle.Render(fmt.Sprintf("Duplicate %s codes: %s", d.Variation, strings.Join(d.Codes, ", "))))
		s.WriteString("\n")
	}
	if len(r.Misses) > 0 {
		s.WriteString(WarnStyle.Render(fmt.Sprintf("Missing mappings: %d", len(r.Misses))))
		s.WriteString("\n")
		for _, miss := range r.Misses {
			s.WriteString("  " + reconcile.MissMessage(miss) + "\n")
		}
	}

	s.WriteString(fmt.Sprintf("Key columns: %s\n", strings.Join(r.Scan.KeyColumns, ", ")))
	if !r.Scan.Found {
		s.WriteString(WarnStyle.Render("No source identifier found in key columns"))
		s.WriteString("\n")
		if len(r.Scan.MatchedSheets) > 0 {
			s.WriteString(fmt.Sprintf("  found in sheets: %s\n", strings.Join(r.Scan.MatchedSheets, ", ")))
		}
	}
	s.WriteString("\n")

	if len(r.Replacements) == 0 {
		s.WriteString("No replacements were made.\n")
		return s.String()
	}

	s.WriteString(fmt.Sprintf("Replacements performed (%d total):\n", len(r.Replacements)))
	limit := len(r.Replacements)
	if width > 0 && limit > MaxListedReplacements {
		limit = MaxListedReplacements
	}
	for _, rec := range r.Replacements[:limit] {
		s.WriteString(fmt.Sprintf("  Row %d, Column %d (%s): %s → %s\n",
			rec.Row, rec.Column, rec.ColumnName, rec.OldValue, ChangeStyle.Render(rec.NewValue)))
	}
	if rest := len(r.Replacements) - limit; rest > 0 {
		s.WriteString(HelpStyle.Render(fmt.Sprintf("  ... and %d more", rest)))
		s.WriteString("\n")
	}

	return s.String()
}

func truncatePath(path string, width int) string {
	if width <= 0 {
		return path
	}
	maxPathLen := width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}
	if len(path) > maxPathLen {
		return "..." + path[len(path)-maxPathLen+3:]
	}
	return path
}
