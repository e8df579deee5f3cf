package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/serial-hil/duplex"
)

// ProgressMsg carries one engine progress report into the program
type ProgressMsg duplex.Progress

// DoneMsg ends the program with the run's result
type DoneMsg struct {
	Err error
}

// TransferModel shows both phases of a duplex run
type TransferModel struct {
	title   string
	labels  [2]string
	spinner spinner.Model
	bars    [2]progress.Model
	phases  [2]duplex.Progress
	started [2]bool
	cancel  context.CancelFunc

	done        bool
	interrupted bool
	err         error
}

// NewTransferModel creates the model; cancel is called when the user quits early
func NewTransferModel(title, portA, portB string, cancel context.CancelFunc) TransferModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = InfoStyle

	return TransferModel{
		title:   title,
		labels:  [2]string{portA + " → " + portB, portB + " → " + portA},
		spinner: s,
		bars: [2]progress.Model{
			progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
			progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		},
		cancel: cancel,
	}
}

func (m TransferModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m TransferModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		width := min(max(msg.Width-40, 10), 60)
		for i := range m.bars {
			m.bars[i].Width = width
		}
		return m, nil

	case ProgressMsg:
		if i := msg.Phase - 1; i == 0 || i == 1 {
			m.phases[i] = duplex.Progress(msg)
			m.started[i] = true
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m TransferModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i := range m.phases {
		p := m.phases[i]
		status := MutedStyle.Render("waiting")
		switch {
		case p.PhaseDone:
			status = SuccessStyle.Render("done")
		case m.started[i] && m.done && m.err != nil:
			status = ErrorStyle.Render("failed")
		case m.started[i]:
			status = m.spinner.View()
		}

		fmt.Fprintf(&b, "Phase %d  %-28s %s %s %s\n",
			i+1, m.labels[i], m.bars[i].ViewAs(fraction(p)), FormatBytes(p.Bytes, p.Total), status)
	}

	switch {
	case m.done && m.err != nil:
		b.WriteString("\n" + Failure(m.err.Error()) + "\n")
	case m.done:
		b.WriteString("\n" + Success("transfer complete") + "\n")
	case m.interrupted:
		b.WriteString("\n" + Warning("stopping after the current chunk...") + "\n")
	default:
		b.WriteString("\n" + MutedStyle.Render("q to abort") + "\n")
	}
	return b.String()
}

// Err returns the run's result once the program has finished
func (m TransferModel) Err() error {
	return m.err
}

func fraction(p duplex.Progress) float64 {
	if p.PhaseDone {
		return 1
	}
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Bytes) / float64(p.Total)
}

// FormatBytes renders "done / total" with binary units
func FormatBytes(done, total int64) string {
	return humanBytes(done) + " / " + humanBytes(total)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

// RunTransfer runs fn under a bubbletea program that renders its progress.
// fn receives a context cancelled when the user aborts and a progress
// callback to hand to duplex.WithProgress. The returned error is fn's.
func RunTransfer(ctx context.Context, title, portA, portB string, fn func(ctx context.Context, progress func(duplex.Progress)) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewTransferModel(title, portA, portB, cancel), opts...)

	result := make(chan error, 1)
	go func() {
		err := fn(ctx, func(pr duplex.Progress) { p.Send(ProgressMsg(pr)) })
		result <- err
		p.Send(DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-result
		return fmt.Errorf("progress display failed: %w", err)
	}
	return <-result
}
