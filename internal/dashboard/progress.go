package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/poller"
)

// JobRun describes one job to start and follow on the progress screen.
type JobRun struct {
	Kind model.JobKind
	// Start creates the backend job and returns its id. It is called again on retry.
	Start func(ctx context.Context) (string, error)
	// Poller follows the job. Results are kept raw for storage and rendering.
	Poller *poller.JobPoller[json.RawMessage]
}

// JobResult is how the progress screen ended.
type JobResult struct {
	JobID     string
	Status    model.JobStatus // completed or error; empty when cancelled
	Result    json.RawMessage
	Err       string
	Cancelled bool
	Elapsed   time.Duration
}

// Messages sent into the program by poller callbacks.
type (
	jobStartedMsg struct {
		id  string
		err error
	}
	pollStartedMsg struct {
		handle *poller.Handle
		err    error
	}
	jobUpdateMsg struct {
		progress int
		message  string
	}
	jobCompletedMsg struct{ result json.RawMessage }
	jobFailedMsg    struct{ message string }
	jobCancelledMsg struct{}
)

// sender is filled in with the running program so poller callbacks can
// reach the model.
type sender struct {
	send func(tea.Msg)
}

type progressModel struct {
	ctx     context.Context
	run     JobRun
	out     *sender
	bar     progress.Model
	frame   int
	started time.Time
	width   int

	jobID    string
	handle   *poller.Handle
	percent  int
	message  string
	failed   string
	starting bool
	result   JobResult
}

func newProgressModel(ctx context.Context, run JobRun, out *sender) progressModel {
	return progressModel{
		ctx:      ctx,
		run:      run,
		out:      out,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		starting: true,
		message:  "Submitting job",
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.startJob(), spinnerTick())
}

func (m progressModel) startJob() tea.Cmd {
	parent, start := m.ctx, m.run.Start
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, time.Minute)
		defer cancel()
		id, err := start(ctx)
		return jobStartedMsg{id: id, err: err}
	}
}

func (m progressModel) startPolling(id string) tea.Cmd {
	ctx, p, out := m.ctx, m.run.Poller, m.out
	return func() tea.Msg {
		h, err := p.Start(ctx, id, poller.Callbacks[json.RawMessage]{
			OnUpdate: func(pct int, msg string) {
				out.send(jobUpdateMsg{progress: pct, message: msg})
			},
			OnComplete: func(res json.RawMessage) {
				out.send(jobCompletedMsg{result: res})
			},
			OnError: func(msg string) {
				out.send(jobFailedMsg{message: msg})
			},
		})
		return pollStartedMsg{handle: h, err: err}
	}
}

func cancelHandle(h *poller.Handle) tea.Cmd {
	return func() tea.Msg {
		if h != nil {
			h.Cancel()
		}
		return jobCancelledMsg{}
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = clamp(msg.Width-10, 20, 80)
		return m, nil

	case spinnerTickMsg:
		m.frame++
		return m, spinnerTick()

	case jobStartedMsg:
		m.starting = false
		if msg.err != nil {
			m.failed = "could not start job: " + msg.err.Error()
			return m, nil
		}
		m.jobID = msg.id
		m.started = time.Now()
		m.message = "Job submitted"
		return m, m.startPolling(msg.id)

	case pollStartedMsg:
		if msg.err != nil {
			m.failed = msg.err.Error()
			return m, nil
		}
		m.handle = msg.handle
		return m, nil

	case jobUpdateMsg:
		m.percent = msg.progress
		if msg.message != "" {
			m.message = msg.message
		}
		return m, nil

	case jobCompletedMsg:
		m.percent = 100
		m.result = JobResult{
			JobID:   m.jobID,
			Status:  model.StatusCompleted,
			Result:  msg.result,
			Elapsed: time.Since(m.started),
		}
		return m, tea.Quit

	case jobFailedMsg:
		m.failed = msg.message
		m.result = JobResult{
			JobID:   m.jobID,
			Status:  model.StatusError,
			Err:     msg.message,
			Elapsed: time.Since(m.started),
		}
		return m, nil

	case jobCancelledMsg:
		m.result = JobResult{JobID: m.jobID, Cancelled: true, Elapsed: time.Since(m.started)}
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if m.failed != "" {
				return m, tea.Quit
			}
			return m, cancelHandle(m.handle)
		case "r":
			if m.failed == "" || m.starting {
				return m, nil
			}
			m.failed = ""
			m.percent = 0
			m.jobID = ""
			m.handle = nil
			m.starting = true
			m.message = "Retrying"
			m.result = JobResult{}
			return m, m.startJob()
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	title := "Weather analysis"
	if m.run.Kind == model.KindPrediction {
		title = "Personalized prediction"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if m.jobID != "" {
		b.WriteString(itemStyle.Render(mutedStyle.Render("job " + m.jobID)))
		b.WriteString("\n\n")
	}

	if m.failed != "" {
		b.WriteString(itemStyle.Render(errorStyle.Render("✗ " + m.failed)))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("r retry  esc back"))
		return b.String()
	}

	b.WriteString(itemStyle.Render(m.bar.ViewAs(float64(m.percent) / 100)))
	b.WriteString("\n\n")
	b.WriteString(itemStyle.Render(fmt.Sprintf("%s %s", renderSpinner(m.frame), m.message)))
	b.WriteString("\n")
	if !m.started.IsZero() {
		b.WriteString(itemStyle.Render(mutedStyle.Render("elapsed " + time.Since(m.started).Round(time.Second).String())))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("esc cancel"))
	return b.String()
}

// RunJobProgress starts run, follows it with its poller and shows a progress
// bar until the job completes, fails (with the option to retry) or the user
// cancels. Any poller still running when the screen closes is cancelled
// through ctx before returning.
func RunJobProgress(ctx context.Context, run JobRun) (JobResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &sender{}
	p := tea.NewProgram(newProgressModel(ctx, run, out), tea.WithAltScreen())
	out.send = p.Send

	result, err := p.Run()
	if err != nil {
		return JobResult{}, err
	}
	return result.(progressModel).result, nil
}
