// Package tui is the interactive terminal client: a Bubble Tea model
// driving QA search against the Search API and, in a second pane
// reached with Tab, a chat conversation grounded in those same
// results via the chat orchestrator.
//
// Generalized directly from the teacher's internal/tui.Model (same
// textinput+viewport layout, WindowSizeMsg sizing math, up/down result
// cycling, sentence-highlighting helper) from raw-document
// domain.SearchResult rendering to QA domain.SearchHit rendering, plus
// a chat pane the teacher's single-purpose document search never had.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kxddry/ragqa/internal/chatsession"
	"github.com/kxddry/ragqa/internal/domain"
)

// SearchPort is the TUI-facing subset of the Search API (F).
type SearchPort interface {
	Search(ctx context.Context, queryText string, k int) ([]domain.SearchHit, error)
}

// ChatPort is the TUI-facing subset of the chat orchestrator (I).
// StartSession exists so the TUI never depends on chatsession.Store
// directly — the caller that wires New decides how sessions persist.
type ChatPort interface {
	StartSession(ctx context.Context) (string, error)
	Turn(ctx context.Context, sessionID, utterance string) (chatsession.ChatTurn, error)
}

// pane selects which half of the split view the input box feeds.
type pane int

const (
	paneSearch pane = iota
	paneChat
)

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	search SearchPort
	chat   ChatPort
	topK   int

	active pane

	input    textinput.Model
	viewport viewport.Model

	results   []domain.SearchHit
	lastQuery string
	cursor    int

	sessionID string
	turns     []chatsession.ChatTurn

	status string
	ready  bool
}

// New creates a TUI model wired against the Search API and the chat
// orchestrator. topK is the default result count for interactive
// search (§6.3 TUI display option).
func New(search SearchPort, chat ChatPort, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a question and press Enter (Tab to switch search/chat)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if topK <= 0 {
		topK = 10
	}
	return Model{
		search:   search,
		chat:     chat,
		topK:     topK,
		input:    ti,
		viewport: vp,
		status:   "Ready. Type to search, Tab for chat.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2
		totalFooterLines := 1
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = maxInt(3, vh-rh)
		m.viewport.SetContent(m.renderActivePane())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			if m.active == paneSearch {
				m.active = paneChat
				m.status = "Chat mode. Type a message and press Enter."
			} else {
				m.active = paneSearch
				m.status = "Search mode. Type a query and press Enter."
			}
			m.viewport.SetContent(m.renderActivePane())
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				break
			}
			m.input.SetValue("")
			if m.active == paneSearch {
				m.runSearch(text)
			} else {
				m.runChatTurn(text)
			}
			m.viewport.SetContent(m.renderActivePane())
			return m, nil
		case "down":
			if m.active == paneSearch && len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderActivePane())
				return m, nil
			}
		case "up":
			if m.active == paneSearch && len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderActivePane())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runSearch(query string) {
	hits, err := m.search.Search(context.Background(), query, m.topK)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
		return
	}
	m.status = fmt.Sprintf("Results for %q", query)
	m.results = hits
	m.cursor = 0
	m.lastQuery = query
}

func (m *Model) runChatTurn(utterance string) {
	if m.sessionID == "" {
		sid, err := m.chat.StartSession(context.Background())
		if err != nil {
			m.status = "Error starting chat session: " + err.Error()
			return
		}
		m.sessionID = sid
	}
	reply, err := m.chat.Turn(context.Background(), m.sessionID, utterance)
	if err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	m.turns = append(m.turns, chatsession.ChatTurn{Role: chatsession.RoleUser, Text: utterance}, reply)
	m.status = "Replied."
}

// View renders the TUI layout and the active pane's content.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("ragqa")
	mode := "search"
	if m.active == paneChat {
		mode = "chat"
	}
	subhead := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("mode: " + mode)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + subhead + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderActivePane() string {
	if m.active == paneChat {
		return m.renderChat()
	}
	return m.renderCurrentResult()
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  rank=%d  similarity=%.3f", m.cursor+1, len(m.results), r.Rank, r.Similarity)
	body := fmt.Sprintf("Q: %s\n\nA: %s", r.Question, highlightBestSentence(r.Answer, m.lastQuery))
	if r.Category != "" || r.Audience != "" {
		body += fmt.Sprintf("\n\n[%s / %s]", r.Category, r.Audience)
	}
	return title + "\n\n" + body
}

func (m Model) renderChat() string {
	if len(m.turns) == 0 {
		return "No messages yet. Type something and press Enter."
	}
	var b strings.Builder
	for _, t := range m.turns {
		speaker := "you"
		if t.Role == chatsession.RoleAssistant {
			speaker = "assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", speaker, t.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
