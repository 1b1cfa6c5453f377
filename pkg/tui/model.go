// Package tui is the terminal chat front end, replies are typed out as they stream in.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/liut/typist/pkg/client"
	"github.com/liut/typist/pkg/models/aigc"
	"github.com/liut/typist/pkg/typewriter"
)

const (
	dftWelcome = "您好！我是您的AI助手，很高兴为您服务。有什么我可以帮助您的吗？"
	clearText  = "对话历史已清除。有什么我可以帮助您的吗？"
)

// Options of the chat view
type Options struct {
	Welcome string
	Cadence time.Duration
}

// Model of the chat view
type Model struct {
	be Backend
	tw *typewriter.Engine

	welcome  string
	messages []*client.DisplayMessage

	// the request in flight
	loading  bool
	streamID string
	stream   *client.Stream
	cancel   context.CancelFunc

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	ready    bool
	width    int
	height   int
	err      error
}

var _ tea.Model = (*Model)(nil)

// New ...
func New(be Backend, opts Options) *Model {
	ta := textarea.New()
	ta.Placeholder = "输入您的问题... (Enter 发送, Ctrl+L 清除, Esc 退出)"
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = loadingStyle

	if len(opts.Welcome) == 0 {
		opts.Welcome = dftWelcome
	}
	return &Model{
		be:       be,
		tw:       typewriter.New(opts.Cadence),
		welcome:  opts.Welcome,
		textarea: ta,
		spinner:  sp,
	}
}

// Init types the welcome message
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.typeStatic(m.welcome))
}

// typeStatic adds an assistant message with known text and types it out.
func (m *Model) typeStatic(text string) tea.Cmd {
	dm := client.NewMessage(client.SenderAI)
	dm.Apply(aigc.DoneEvent(text))
	m.messages = append(m.messages, dm)
	return m.tw.Start(dm.ID, text)
}

func (m *Model) find(id string) *client.DisplayMessage {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].ID == id {
			return m.messages[i]
		}
	}
	return nil
}

// settleAll stops every running animation, showing full text at once.
func (m *Model) settleAll() {
	for _, dm := range m.messages {
		if dm.Animating() && dm.Closed {
			m.tw.Cancel(dm.ID)
			dm.Settle()
		}
	}
}

// abort drops the request in flight
func (m *Model) abort() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.stream != nil {
		_ = m.stream.Close()
		m.stream = nil
	}
	m.streamID = ""
	m.loading = false
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.abort()
			m.tw.Close()
			return m, tea.Quit
		case "ctrl+l":
			cmds = append(cmds, m.clear())
		case "enter":
			cmds = append(cmds, m.submit())
		default:
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}

	case streamOpenedMsg:
		if msg.id != m.streamID {
			_ = msg.st.Close()
			break
		}
		m.stream = msg.st
		cmds = append(cmds, nextCmd(msg.id, msg.st))

	case eventMsg:
		if msg.id != m.streamID {
			break
		}
		if dm := m.find(msg.id); dm != nil {
			cmds = append(cmds, m.apply(dm, dm.Apply(msg.ev)))
		}
		cmds = append(cmds, nextCmd(msg.id, m.stream))

	case streamEndMsg:
		if msg.id == m.streamID {
			logger().Debugw("stream end", "id", msg.id)
			m.abort()
		}

	case streamErrMsg:
		if msg.id != m.streamID {
			break
		}
		logger().Infow("stream fail", "id", msg.id, "err", msg.err)
		if dm := m.find(msg.id); dm != nil {
			cmds = append(cmds, m.apply(dm, dm.Fail(msg.err)))
		}
		m.abort()

	case clearedMsg:
		m.err = msg.err
		if msg.err != nil {
			logger().Infow("clear history fail", "err", msg.err)
		}

	case typewriter.TickMsg:
		cmds = append(cmds, m.tw.Update(msg))

	case typewriter.DoneMsg:
		if dm := m.find(msg.ID); dm != nil {
			dm.Finish()
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.refresh()
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// apply hands the transition of dm to the typewriter
func (m *Model) apply(dm *client.DisplayMessage, act client.Action) tea.Cmd {
	switch act {
	case client.ActRetarget:
		return m.tw.Retarget(dm.ID, dm.Pending)
	case client.ActSeal:
		return m.tw.Seal(dm.ID, dm.Pending)
	case client.ActStop:
		m.tw.Cancel(dm.ID)
	}
	return nil
}

func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.textarea.Value())
	if len(text) == 0 || m.loading {
		return nil
	}
	m.textarea.Reset()
	m.settleAll()

	m.messages = append(m.messages, client.NewStatic(client.SenderUser, text))
	dm := client.NewMessage(client.SenderAI)
	m.messages = append(m.messages, dm)
	m.tw.Open(dm.ID)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.streamID = dm.ID
	m.loading = true
	m.err = nil
	return tea.Batch(sendCmd(ctx, m.be, dm.ID, text), m.spinner.Tick)
}

func (m *Model) clear() tea.Cmd {
	m.abort()
	m.tw.CancelAll()
	m.messages = nil
	return tea.Batch(m.typeStatic(clearText), clearCmd(context.Background(), m.be))
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	headerHeight := 4
	inputHeight := 4
	vpHeight := height - headerHeight - inputHeight - 1
	if vpHeight < 3 {
		vpHeight = 3
	}
	contentWidth := width - 2
	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.viewport.KeyMap = viewport.KeyMap{
			PageDown: key.NewBinding(key.WithKeys("pgdown")),
			PageUp:   key.NewBinding(key.WithKeys("pgup")),
		}
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
}

// refresh re-renders the transcript into the viewport
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom || m.tw.Active() || m.loading {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessages() string {
	width := m.viewport.Width - 4
	var sb strings.Builder
	for i, dm := range m.messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		label := assistantLabelStyle.Render("AI")
		if dm.Sender == client.SenderUser {
			label = userLabelStyle.Render("You")
		}
		sb.WriteString(label + " " + timeStyle.Render(dm.Time.Format("15:04")) + "\n")

		style := messageStyle
		if dm.Static && dm.Sender == client.SenderAI {
			style = errorMessageStyle
		}
		switch {
		case dm.Phase == client.PhaseIdle:
			sb.WriteString(messageStyle.Render(m.spinner.View()))
		case dm.Animating():
			sb.WriteString(style.Width(width).Render(dm.Text(m.tw.Revealed(dm.ID)) + cursorStyle.Render("▍")))
		default:
			sb.WriteString(style.Width(width).Render(dm.Committed))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// View renders the TUI
func (m *Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	contentWidth := m.width - 2

	header := headerStyle.Width(contentWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("智能对话AI助手"),
		subtitleStyle.Render("随时为您提供帮助"),
	))

	var input string
	if m.loading {
		input = m.spinner.View() + hintStyle.Render(" 正在回复...")
	} else {
		input = m.textarea.View()
	}
	sections := []string{header, m.viewport.View(), inputPanelStyle.Width(contentWidth).Render(input)}
	if m.err != nil {
		sections = append(sections, errorMessageStyle.Render(m.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Messages of the transcript
func (m *Model) Messages() []*client.DisplayMessage {
	return m.messages
}
