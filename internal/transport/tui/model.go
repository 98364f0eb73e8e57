package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandevgo/teammate/internal/config"
	"github.com/sandevgo/teammate/internal/core"
	"github.com/sandevgo/teammate/internal/service/session"
	"github.com/sandevgo/teammate/pkg/textutil"
)

type sessionEventMsg session.Event

// line is one rendered transcript entry.
type line struct {
	speaker   string
	text      string
	isPersona bool
}

type model struct {
	cfg      *config.Config
	sess     *session.Session
	styles   styles
	keys     map[string]bool
	langs    []string
	viewport viewport.Model

	lines      []line
	references []core.Reference
	listening  bool
	language   string
	notice     string
	width      int
	ready      bool
	quitting   bool
}

func newModel(cfg *config.Config, sess *session.Session, keyStatus map[string]bool) model {
	langs := make([]string, 0, len(cfg.Speech.LanguageCodes))
	for name := range cfg.Speech.LanguageCodes {
		langs = append(langs, name)
	}
	sort.Strings(langs)

	return model{
		cfg:      cfg,
		sess:     sess,
		styles:   newStyles(cfg.UI),
		keys:     keyStatus,
		langs:    langs,
		language: sess.Language(),
	}
}

// waitForEvent blocks on the session event channel and hands the next
// event to Update.
func (m model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.sess.Events()
		if !ok {
			return tea.QuitMsg{}
		}
		return sessionEventMsg(e)
	}
}

func (m model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := m.cfg.UI.TranscriptHeight
		if height > msg.Height-8 {
			height = msg.Height - 8
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.refreshTranscript()

	case sessionEventMsg:
		m.applyEvent(session.Event(msg))
		return m, m.waitForEvent()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) applyEvent(e session.Event) {
	switch e.Kind {
	case session.EventUtterance:
		m.lines = append(m.lines, line{
			speaker:   e.Utterance.Speaker,
			text:      e.Utterance.Text,
			isPersona: e.Utterance.Speaker == m.cfg.AI.Persona.Name,
		})
		if len(e.References) > 0 {
			m.references = e.References
		}
		m.refreshTranscript()
	case session.EventListening:
		m.listening = e.Listening
	case session.EventCleared:
		m.lines = nil
		m.references = nil
		m.refreshTranscript()
	case session.EventNotice:
		m.notice = e.Notice
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case " ":
		if m.listening {
			m.sess.StopListening()
		} else if err := m.sess.StartListening(); err != nil {
			m.notice = fmt.Sprintf("microphone: %v", err)
		}
		return m, nil
	case "l":
		m.cycleLanguage()
		return m, nil
	case "c":
		m.sess.ClearHistory()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) cycleLanguage() {
	if len(m.langs) == 0 {
		return
	}
	next := 0
	for i, name := range m.langs {
		if name == m.language {
			next = (i + 1) % len(m.langs)
			break
		}
	}
	if err := m.sess.SetLanguage(m.langs[next]); err != nil {
		m.notice = err.Error()
		return
	}
	m.language = m.langs[next]
}

func (m *model) refreshTranscript() {
	if !m.ready {
		return
	}
	var sb strings.Builder
	for _, l := range m.lines {
		style := m.styles.speaker
		if l.isPersona {
			style = m.styles.persona
		}
		sb.WriteString(style.Render(l.speaker+":") + " " + l.text + "\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if m.quitting {
		return "Session ended.\n"
	}
	if !m.ready {
		return "Starting up..."
	}

	var sb strings.Builder
	sb.WriteString(m.styles.title.Render(fmt.Sprintf("%s — %s", core.AppName, m.cfg.AI.Persona.Name)) + "\n\n")
	sb.WriteString(m.viewport.View() + "\n\n")

	if len(m.references) > 0 {
		sb.WriteString(m.styles.reference.Render("References:") + "\n")
		for _, r := range m.references {
			sb.WriteString(m.styles.reference.Render(fmt.Sprintf("  [%.2f] %s", r.Similarity, textutil.Truncate(r.Text, 80))) + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(m.statusLine() + "\n")
	if m.notice != "" {
		sb.WriteString(m.styles.statusOff.Render(m.notice) + "\n")
	}
	sb.WriteString(m.styles.help.Render("space: listen · l: language · c: clear · q: quit") + "\n")
	return sb.String()
}

func (m model) statusLine() string {
	mic := m.styles.statusOff.Render("● muted")
	if m.listening {
		mic = m.styles.statusOn.Render("● listening")
	}

	names := make([]string, 0, len(m.keys))
	for name := range m.keys {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := []string{mic, m.styles.status.Render("lang: " + m.language)}
	for _, name := range names {
		if m.keys[name] {
			parts = append(parts, m.styles.statusOn.Render(name+" ✓"))
		} else {
			parts = append(parts, m.styles.statusOff.Render(name+" ✗"))
		}
	}
	return strings.Join(parts, "  ")
}
