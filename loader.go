package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// Minimum time before showing the loading screen
	loadingDelay   = 200 * time.Millisecond
	loaderBarWidth = 40
)

// scanProgressMsg is sent to update loading progress
type scanProgressMsg ScanProgress

// scanCompleteMsg is sent when scanning is complete
type scanCompleteMsg struct{}

// progressRelay hands pipeline progress to the loader without blocking
// the parsers
type progressRelay struct {
	ch chan ScanProgress
}

func newProgressRelay() *progressRelay {
	return &progressRelay{ch: make(chan ScanProgress, 10)}
}

func (r *progressRelay) report(p ScanProgress) {
	select {
	case r.ch <- p:
	default:
		// Don't block if channel is full
	}
}

// loaderModel is the loading screen shown while the first refresh runs
type loaderModel struct {
	spinner   spinner.Model
	bar       progress.Model
	status    ScanProgress
	width     int
	height    int
	started   time.Time
	visible   bool
	cancelled bool
}

func newLoaderModel() loaderModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = loaderAccentStyle

	return loaderModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(loaderBarWidth)),
		started: time.Now(),
	}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize())
}

// reveal shows the loader once loadingDelay has passed
func (m loaderModel) reveal() loaderModel {
	if !m.visible && time.Since(m.started) > loadingDelay {
		m.visible = true
	}
	return m
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = min(loaderBarWidth, max(10, msg.Width-10))

	case tea.KeyMsg:
		if key := msg.String(); key == "q" || key == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m.reveal(), cmd

	case scanProgressMsg:
		m.status = ScanProgress(msg)
		return m.reveal(), nil

	case scanCompleteMsg:
		return m, tea.Quit
	}

	return m, nil
}

// fraction returns how much of the parse phase is done
func (m loaderModel) fraction() float64 {
	if m.status.FilesFound == 0 {
		return 0
	}
	return float64(m.status.FilesParsed) / float64(m.status.FilesFound)
}

func (m loaderModel) View() string {
	if !m.visible {
		return ""
	}

	phase := "Loading..."
	switch m.status.Phase {
	case "scanning":
		phase = "Listing documents..."
	case "parsing":
		phase = fmt.Sprintf("Indexing %d/%d documents", m.status.FilesParsed, m.status.FilesFound)
	}

	lines := []string{loaderTitleStyle.Render(appName) + " " + m.spinner.View() + " " + phase}

	if m.status.Phase == "parsing" {
		lines = append(lines, m.bar.ViewAs(m.fraction()))
		if m.status.TasksFound > 0 {
			lines = append(lines, loaderDimStyle.Render(fmt.Sprintf("%d todos so far", m.status.TasksFound)))
		}
	}

	if file := m.status.CurrentFile; file != "" {
		limit := max(20, m.width-40)
		if len(file) > limit {
			file = "..." + file[len(file)-limit+3:]
		}
		lines = append(lines, loaderDimStyle.Render(file))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, strings.Join(lines, "\n"))
}

// openWithLoader opens the pipeline, showing a loading screen with the
// relay's progress if the first refresh takes longer than loadingDelay
func openWithLoader(ctx context.Context, p *Pipeline, relay *progressRelay) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- p.Open(ctx)
	}()

	// Wait a bit to see if the first refresh finishes quickly
	select {
	case err := <-done:
		return err
	case <-time.After(loadingDelay):
		// Continue to show loader
	}

	prog := tea.NewProgram(newLoaderModel(), tea.WithAltScreen())

	stopForward := make(chan struct{})
	defer close(stopForward)

	// Forward progress to TUI
	go func() {
		for {
			select {
			case progress := <-relay.ch:
				prog.Send(scanProgressMsg(progress))
			case <-stopForward:
				return
			}
		}
	}()

	var result error
	finished := make(chan struct{})

	// Monitor for completion
	go func() {
		result = <-done
		close(finished)
		prog.Send(scanCompleteMsg{})
	}()

	final, err := prog.Run()

	cancelled := false
	if lm, ok := final.(loaderModel); ok && lm.cancelled {
		cancelled = true
		cancel()
	}

	<-finished

	if err != nil {
		return err
	}
	if cancelled {
		return context.Canceled
	}

	return result
}
