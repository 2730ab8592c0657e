package tui

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saithsab877/hivechat/internal/chat"
	"github.com/saithsab877/hivechat/internal/logging"
	"github.com/saithsab877/hivechat/internal/models"
	"github.com/saithsab877/hivechat/internal/render"
	"github.com/saithsab877/hivechat/internal/telemetry"
)

// ThinkingPlaceholder is shown in the chain of thought panel until the
// first log line of a run arrives.
const ThinkingPlaceholder = "Hive is working on it..."

const (
	defaultTitleDebounce = 500 * time.Millisecond
	toastDuration        = 3 * time.Second
	maxThoughtLines      = 8
)

// ChatStore is the part of history.Store the chat view needs
type ChatStore interface {
	LoadChatHistory(ctx context.Context, chatID string) error
	LoadChat(ctx context.Context, chatID string) (models.Chat, error)
	Messages(chatID string) []models.ChatMessage
	AddMessage(chatID string, msg models.ChatMessage) bool
	UpdateMessage(chatID, id string, update models.ChatMessage) bool
	SendMessage(ctx context.Context, req models.SendRequest) (models.ChatMessage, error)
	UpdateChatTitle(ctx context.Context, chatID, title string) error
}

// LogStream is the live job log of the active run
type LogStream interface {
	Start(ctx context.Context, projectID, chatID string)
	Stop()
	Reset()
	Entries() []models.LogEntry
	Updates() <-chan struct{}
	TakeErr() error
}

// FrameSource is the chat socket
type FrameSource interface {
	Frames(ctx context.Context) iter.Seq2[chat.Frame, error]
	Close() error
}

// ChatOptions configures a chat view
type ChatOptions struct {
	WorkspaceUUID string
	ChatID        string
	Model         models.Model
	// TitleDebounce coalesces title commits; zero means 500ms.
	TitleDebounce time.Duration
	Render        render.Options
	// SaveModel persists the selected model; nil disables persistence.
	SaveModel func(name string) error
	Logger    *slog.Logger
	Telemetry *telemetry.Telemetry
}

type (
	historyLoadedMsg struct{ err error }
	chatLoadedMsg    struct {
		chat models.Chat
		err  error
	}
	frameMsg struct {
		frame chat.Frame
		err   error
	}
	socketClosedMsg struct{}
	logUpdateMsg    struct{}
	sentMsg         struct {
		msg models.ChatMessage
		err error
	}
	titleFlushMsg struct{ seq uint64 }
	titleSavedMsg struct {
		title string
		err   error
	}
	modelSavedMsg struct{ err error }
	toastClearMsg struct{ id int }
)

// ChatModel is the chat session view: transcript, composer, title editor
// and the chain of thought panel fed by the run log.
type ChatModel struct {
	store  ChatStore
	logs   LogStream
	socket FrameSource
	opts   ChatOptions
	logger *slog.Logger
	tel    *telemetry.Telemetry

	ctx    context.Context
	cancel context.CancelFunc
	frames chan frameMsg

	viewport   viewport.Model
	textarea   textarea.Model
	titleInput textinput.Model
	spinner    spinner.Model

	title      string
	savedTitle string
	sessionID  string
	projectID  string
	model      models.Model

	sending        bool
	loadingHistory bool
	editingTitle   bool
	titleWrite     *chat.PendingWrite

	showThoughts bool
	logEntries   []models.LogEntry

	toast    string
	toastErr bool
	toastID  int

	socketDown bool

	width  int
	height int
	ready  bool
}

// NewChatModel creates the chat view. logs and socket may be nil, which
// disables the run log and live updates respectively.
func NewChatModel(store ChatStore, logs LogStream, socket FrameSource, opts ChatOptions) ChatModel {
	if opts.TitleDebounce <= 0 {
		opts.TitleDebounce = defaultTitleDebounce
	}
	if opts.Model.Name == "" {
		opts.Model = models.DefaultModel
	}
	if opts.Render.Width == 0 {
		opts.Render = render.DefaultOptions()
	}

	ta := textarea.New()
	ta.Placeholder = "Message Hive..."
	ta.CharLimit = 8000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle
	ta.Focus()

	ti := textinput.New()
	ti.Placeholder = "Chat title"
	ti.CharLimit = 200
	ti.Prompt = "Title: "

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	ctx, cancel := context.WithCancel(context.Background())

	return ChatModel{
		store:          store,
		logs:           logs,
		socket:         socket,
		opts:           opts,
		logger:         logging.OrDiscard(opts.Logger).With("view", "chat", "chat_id", opts.ChatID),
		tel:            telemetry.OrNoop(opts.Telemetry),
		ctx:            ctx,
		cancel:         cancel,
		frames:         make(chan frameMsg, 16),
		textarea:       ta,
		titleInput:     ti,
		spinner:        s,
		model:          opts.Model,
		loadingHistory: true,
		titleWrite:     &chat.PendingWrite{},
	}
}

// Init loads the transcript and starts listening on both sockets
func (m ChatModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.loadHistory(), m.loadChat()}
	if m.socket != nil {
		cmds = append(cmds, m.pumpFrames(), waitFrame(m.frames))
	}
	if m.logs != nil {
		cmds = append(cmds, waitLogs(m.ctx, m.logs))
	}
	return tea.Batch(cmds...)
}

func (m ChatModel) loadHistory() tea.Cmd {
	store, ctx, chatID := m.store, m.ctx, m.opts.ChatID
	return func() tea.Msg {
		return historyLoadedMsg{err: store.LoadChatHistory(ctx, chatID)}
	}
}

func (m ChatModel) loadChat() tea.Cmd {
	store, ctx, chatID := m.store, m.ctx, m.opts.ChatID
	return func() tea.Msg {
		c, err := store.LoadChat(ctx, chatID)
		return chatLoadedMsg{chat: c, err: err}
	}
}

// pumpFrames forwards chat socket frames into the program until the
// socket ends or the view shuts down.
func (m ChatModel) pumpFrames() tea.Cmd {
	src, ctx, out := m.socket, m.ctx, m.frames
	return func() tea.Msg {
		defer close(out)
		for f, err := range src.Frames(ctx) {
			select {
			case out <- frameMsg{frame: f, err: err}:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	}
}

func waitFrame(ch <-chan frameMsg) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return socketClosedMsg{}
		}
		return f
	}
}

func waitLogs(ctx context.Context, logs LogStream) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-logs.Updates():
			return logUpdateMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// Update handles messages and updates the model
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.editingTitle {
			return m.updateTitleEditor(msg)
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		case "ctrl+t":
			m.editingTitle = true
			m.titleInput.SetValue(m.title)
			m.titleInput.CursorEnd()
			m.textarea.Blur()
			return m, m.titleInput.Focus()
		case "ctrl+o":
			return m, m.cycleModel()
		case "enter":
			return m.submit()
		}

	case historyLoadedMsg:
		m.loadingHistory = false
		if msg.err != nil {
			m.logger.Error("history load failed", "error", msg.err)
			cmds = append(cmds, m.showToast("Could not load history: "+msg.err.Error(), true))
		}
		m.refresh()
		m.viewport.GotoBottom()

	case chatLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("chat load failed", "error", msg.err)
			cmds = append(cmds, m.showToast("Could not load chat: "+msg.err.Error(), true))
		} else if m.title == "" || m.title == m.savedTitle {
			m.title = msg.chat.Title
			m.savedTitle = msg.chat.Title
		}

	case frameMsg:
		cmds = append(cmds, m.handleFrame(msg), waitFrame(m.frames))

	case socketClosedMsg:
		m.socketDown = true
		m.logger.Info("chat socket closed")
		cmds = append(cmds, m.showToast("Live connection closed", true))

	case logUpdateMsg:
		if err := m.logs.TakeErr(); err != nil {
			m.logger.Warn("log stream error", "error", err)
			cmds = append(cmds, m.showToast("Run log: "+err.Error(), true))
		}
		if m.showThoughts {
			m.logEntries = m.logs.Entries()
			m.refresh()
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, waitLogs(m.ctx, m.logs))

	case sentMsg:
		m.sending = false
		if msg.err != nil {
			m.logger.Error("send failed", "error", msg.err)
			cmds = append(cmds, m.showToast("Send failed: "+msg.err.Error(), true))
		} else {
			m.textarea.Reset()
			m.refresh()
			m.viewport.GotoBottom()
		}

	case titleFlushMsg:
		if title, ok := m.titleWrite.Take(msg.seq); ok {
			cmds = append(cmds, m.saveTitle(title))
		}

	case titleSavedMsg:
		if msg.err != nil {
			m.logger.Error("title update failed", "error", msg.err)
			cmds = append(cmds, m.showToast("Title not saved: "+msg.err.Error(), true))
		} else {
			m.savedTitle = msg.title
			cmds = append(cmds, m.showToast("Title saved", false))
		}

	case modelSavedMsg:
		if msg.err != nil {
			m.logger.Warn("model preference not saved", "error", msg.err)
		}

	case toastClearMsg:
		if msg.id == m.toastID {
			m.toast = ""
			m.toastErr = false
		}

	case spinner.TickMsg:
		if m.sending || m.showThoughts {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// only keys reach the composer, and not while a send is in flight
	if !m.sending && !m.editingTitle {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit sends the draft. A send already in flight makes it a no-op.
func (m ChatModel) submit() (tea.Model, tea.Cmd) {
	draft := strings.TrimSpace(m.textarea.Value())
	if m.sending || draft == "" {
		return m, nil
	}

	m.sending = true
	req := models.SendRequest{
		ChatID:            m.opts.ChatID,
		Message:           draft,
		SourceWebsocketID: m.sessionID,
		WorkspaceUUID:     m.opts.WorkspaceUUID,
		ModelSelection:    m.model.Name,
	}
	return m, tea.Batch(m.sendMessage(req), m.spinner.Tick)
}

func (m ChatModel) sendMessage(req models.SendRequest) tea.Cmd {
	store, ctx, tel := m.store, m.ctx, m.tel
	return func() tea.Msg {
		msg, err := store.SendMessage(ctx, req)
		tel.RecordSend(ctx, req.ModelSelection, err == nil)
		return sentMsg{msg: msg, err: err}
	}
}

func (m *ChatModel) handleFrame(fm frameMsg) tea.Cmd {
	if fm.err != nil {
		m.logger.Warn("chat frame error", "error", fm.err)
		return m.showToast("Live update failed: "+fm.err.Error(), true)
	}

	f := fm.frame
	switch f.Kind {
	case chat.FrameConnect:
		m.sessionID = f.SessionID
		m.socketDown = false
		m.logger.Debug("chat socket connected", "session_id", f.SessionID)
		return nil

	case chat.FrameRunStarted:
		m.logEntries = nil
		m.showThoughts = true
		if m.logs != nil {
			m.logs.Reset()
			if f.ProjectID != "" {
				m.projectID = f.ProjectID
				m.logs.Start(m.ctx, f.ProjectID, m.opts.ChatID)
			}
		}
		m.logger.Info("run started", "project_id", f.ProjectID)
		m.refresh()
		m.viewport.GotoBottom()
		return m.spinner.Tick

	case chat.FrameMessage:
		if !m.forThisChat(f.Message) {
			return nil
		}
		m.store.AddMessage(m.opts.ChatID, f.Message)
		m.logEntries = nil
		m.showThoughts = false
		if m.logs != nil {
			m.logs.Reset()
		}
		m.refresh()
		m.viewport.GotoBottom()
		return nil

	case chat.FrameProcess:
		if !m.forThisChat(f.Message) {
			return nil
		}
		if !m.store.UpdateMessage(m.opts.ChatID, f.Message.ID, f.Message) {
			m.logger.Debug("process frame for unknown message", "message_id", f.Message.ID)
			return nil
		}
		m.refresh()
		return nil
	}

	m.logger.Debug("frame ignored", "discriminant", f.Discriminant)
	return nil
}

func (m ChatModel) forThisChat(msg models.ChatMessage) bool {
	return msg.ChatID == "" || msg.ChatID == m.opts.ChatID
}

func (m ChatModel) updateTitleEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit

	case "esc":
		m.editingTitle = false
		if m.titleWrite.Pending() {
			m.title = m.savedTitle
		}
		m.titleWrite.Cancel()
		m.titleInput.Blur()
		return m, m.textarea.Focus()

	case "enter":
		title := strings.TrimSpace(m.titleInput.Value())
		if title == "" {
			return m, m.showToast("Title cannot be empty", true)
		}
		m.editingTitle = false
		m.titleInput.Blur()
		m.title = title
		seq := m.titleWrite.Schedule(title)
		flush := tea.Tick(m.opts.TitleDebounce, func(time.Time) tea.Msg {
			return titleFlushMsg{seq: seq}
		})
		return m, tea.Batch(flush, m.textarea.Focus())
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m ChatModel) saveTitle(title string) tea.Cmd {
	store, ctx, chatID := m.store, m.ctx, m.opts.ChatID
	return func() tea.Msg {
		return titleSavedMsg{title: title, err: store.UpdateChatTitle(ctx, chatID, title)}
	}
}

func (m *ChatModel) cycleModel() tea.Cmd {
	m.model = models.NextModel(m.model)
	toast := m.showToast("Model: "+m.model.Label, false)

	save := m.opts.SaveModel
	if save == nil {
		return toast
	}
	name := m.model.Name
	return tea.Batch(toast, func() tea.Msg {
		return modelSavedMsg{err: save(name)}
	})
}

func (m *ChatModel) showToast(text string, isErr bool) tea.Cmd {
	m.toastID++
	m.toast = text
	m.toastErr = isErr
	id := m.toastID
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastClearMsg{id: id}
	})
}

// Close stops both sockets and waits for the log stream to finish. It is
// safe to call more than once. Quitting only cancels the view's context;
// RunChat closes once the program has exited.
func (m ChatModel) Close() {
	m.cancel()
	if m.logs != nil {
		m.logs.Stop()
	}
	if m.socket != nil {
		_ = m.socket.Close()
	}
}

func (m *ChatModel) resize(width, height int) {
	m.width = width
	m.height = height

	const (
		headerHeight = 3
		inputHeight  = 5
		footerHeight = 2
		borders      = 2
	)
	vpHeight := max(height-headerHeight-inputHeight-footerHeight-borders, 5)
	contentWidth := max(width-4, 20)

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		// letters belong to the composer
		m.viewport.KeyMap = viewport.KeyMap{
			PageUp:   key.NewBinding(key.WithKeys("pgup")),
			PageDown: key.NewBinding(key.WithKeys("pgdown")),
			Up:       key.NewBinding(key.WithKeys("ctrl+up")),
			Down:     key.NewBinding(key.WithKeys("ctrl+down")),
		}
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.titleInput.Width = contentWidth - 12
	m.refresh()
}

// refresh rebuilds the transcript from the store
func (m *ChatModel) refresh() {
	if !m.ready {
		return
	}
	bubbleWidth := max(m.viewport.Width-6, 10)
	opts := m.opts.Render.WithWidth(bubbleWidth - 4)

	var b strings.Builder
	for i, msg := range m.store.Messages(m.opts.ChatID) {
		if i > 0 {
			b.WriteString("\n")
		}
		if msg.IsUser() {
			b.WriteString(userLabelStyle.Render("● You"))
			b.WriteString("\n")
			b.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Message))
		} else {
			b.WriteString(assistantLabelStyle.Render("✦ Hive"))
			b.WriteString("\n")
			b.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(render.Message(msg.Message, opts)))
		}
		b.WriteString("\n")
	}

	if m.showThoughts {
		b.WriteString("\n")
		b.WriteString(m.renderThoughts(bubbleWidth))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
}

func (m ChatModel) renderThoughts(width int) string {
	lines := []string{thoughtsHeadStyle.Render("✦ Chain of thought")}
	if len(m.logEntries) == 0 {
		lines = append(lines, ThinkingPlaceholder)
	} else {
		entries := m.logEntries
		if len(entries) > maxThoughtLines {
			entries = entries[len(entries)-maxThoughtLines:]
		}
		for _, e := range entries {
			marker := "›"
			if e.Kind == models.LogStepComplete {
				marker = stepDoneStyle.Render("✓")
			}
			lines = append(lines, marker+" "+e.Message)
		}
	}
	return thoughtsStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// View renders the chat view
func (m ChatModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.viewport.Width
	sections := []string{m.renderHeader(contentWidth)}

	body := m.viewport.View()
	if m.loadingHistory {
		body = loadingStyle.Render("  Loading history...")
	} else if len(m.store.Messages(m.opts.ChatID)) == 0 && !m.showThoughts {
		body = hintStyle.Render("  No messages yet. Say hello to Hive.")
	}
	sections = append(sections, messagesAreaStyle.Width(contentWidth).Height(m.viewport.Height).Render(body))

	var input string
	switch {
	case m.editingTitle:
		input = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("Rename chat"),
			m.titleInput.View(),
		)
	case m.sending:
		input = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.spinner.View()+" "+subtitleStyle.Render("Sending..."),
		)
	default:
		input = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(input))

	toast := ""
	if m.toast != "" {
		if m.toastErr {
			toast = toastErrorStyle.Render("⚠ " + m.toast)
		} else {
			toast = toastOkStyle.Render("✓ " + m.toast)
		}
	}
	sections = append(sections, toast)

	if m.editingTitle {
		sections = append(sections, renderShortcuts(contentWidth, []shortcut{
			{"Enter", "Save"},
			{"Esc", "Cancel"},
		}))
	} else {
		sections = append(sections, renderShortcuts(contentWidth, []shortcut{
			{"Enter", "Send"},
			{"Alt+Enter", "Newline"},
			{"Ctrl+T", "Title"},
			{"Ctrl+O", "Model"},
			{"Esc", "Quit"},
		}))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ChatModel) renderHeader(width int) string {
	title := m.title
	if title == "" {
		title = "Untitled chat"
	}

	status := lipgloss.NewStyle().Foreground(colorSecondary).Render("●")
	if m.socketDown || m.socket == nil {
		status = lipgloss.NewStyle().Foreground(colorTextMute).Render("○")
	}

	parts := []string{
		titleStyle.Render("⬢ " + title),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.model.Label),
		hintStyle.Render("  "),
		status,
	}
	if m.projectID != "" && m.showThoughts {
		parts = append(parts, hintStyle.Render(fmt.Sprintf("  run %s", m.projectID)))
	}
	return headerStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Center, parts...))
}

// Model returns the selected model
func (m ChatModel) Model() models.Model {
	return m.model
}

// RunChat runs the chat view until the user quits
func RunChat(m ChatModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if cm, ok := final.(ChatModel); ok {
		cm.Close()
	} else {
		m.Close()
	}
	return err
}
