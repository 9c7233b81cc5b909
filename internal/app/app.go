// Package app holds the root Bubble Tea model of the Arena TUI: one battle
// at a time, two anonymous panes streaming side by side, a vote prompt once
// both finish, and a leaderboard view.
package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Bae-ChangHyun/DocParse-Arena/internal/battle"
	"github.com/Bae-ChangHyun/DocParse-Arena/internal/client"
	"github.com/Bae-ChangHyun/DocParse-Arena/internal/lifecycle"
	"github.com/Bae-ChangHyun/DocParse-Arena/internal/theme"
)

// viewMode identifies which screen is active.
type viewMode int

const (
	viewBattle viewMode = iota
	viewLeaderboard
)

// Model is the root Bubble Tea model.
type Model struct {
	httpc     *client.HTTPClient
	resources *lifecycle.Manager

	keys   KeyMap
	width  int
	height int

	mode viewMode

	// Current battle.
	hasBattle bool
	state     battle.State
	stream    *client.StreamSession

	// Rendered markdown, cached once a lane turns terminal.
	renderA string
	renderB string

	spin   spinner.Model
	board  table.Model
	status string

	// localDoc, when set, is uploaded instead of asking the backend for a
	// random sample.
	localDoc string
}

// New creates the root model. localDoc may be empty.
func New(httpc *client.HTTPClient, localDoc string) Model {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorLoading)),
	)

	board := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Model", Width: 20},
			{Title: "Provider", Width: 14},
			{Title: "ELO", Width: 6},
			{Title: "W", Width: 5},
			{Title: "L", Width: 5},
			{Title: "Win%", Width: 6},
		}),
		table.WithHeight(12),
	)

	return Model{
		httpc:     httpc,
		resources: lifecycle.NewManager(),
		keys:      DefaultKeyMap(),
		spin:      sp,
		board:     board,
		localDoc:  localDoc,
	}
}

// Init starts the first battle.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, startBattleCmd(m.httpc, m.localDoc))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case battleStartedMsg:
		// Tracking the new battle releases whatever the previous one held.
		m.resources.Track(msg.state.BattleID, msg.doc, msg.stream)
		m.hasBattle = true
		m.state = msg.state
		m.stream = msg.stream
		m.renderA, m.renderB = "", ""
		m.status = ""
		m.mode = viewBattle
		return m, waitForEvent(msg.stream)

	case streamEventMsg:
		if msg.src != m.stream {
			// Leftover from a replaced battle's stream: the event must not
			// touch the new state, and re-arming here would put a second
			// receiver on the current stream's channel.
			return m, nil
		}
		if !msg.ok {
			return m, nil
		}
		m = m.applyEvent(msg.ev)
		return m, waitForEvent(m.stream)

	case votedMsg:
		next, err := battle.RecordVote(m.state, outcomeFromResponse(msg.resp))
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.state = next
		m.resources.Release(m.state.BattleID)
		return m, nil

	case leaderboardMsg:
		m.board.SetRows(leaderboardRows(msg.entries))
		return m, nil

	case errMsg:
		m.status = msg.err.Error()
		return m, nil
	}

	return m, nil
}

// applyEvent advances the reducer and refreshes the cached markdown for
// lanes that just finished cleanly.
func (m Model) applyEvent(ev battle.Event) Model {
	m.state = battle.Apply(m.state, ev)

	if l := m.state.A; l.Phase == battle.Done {
		m.renderA = renderMarkdown(l.Buffer, m.paneWidth())
	}
	if l := m.state.B; l.Phase == battle.Done {
		m.renderB = renderMarkdown(l.Buffer, m.paneWidth())
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == viewLeaderboard {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Leaderboard):
			m.mode = viewBattle
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		var cmd tea.Cmd
		m.board, cmd = m.board.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.NewBattle):
		return m, startBattleCmd(m.httpc, m.localDoc)

	case key.Matches(msg, m.keys.Leaderboard):
		m.mode = viewLeaderboard
		return m, leaderboardCmd(m.httpc)

	case key.Matches(msg, m.keys.VoteA):
		return m.castVote(battle.WinnerA)
	case key.Matches(msg, m.keys.VoteB):
		return m.castVote(battle.WinnerB)
	case key.Matches(msg, m.keys.VoteTie):
		return m.castVote(battle.WinnerTie)
	}

	return m, nil
}

func (m Model) castVote(w battle.Winner) (tea.Model, tea.Cmd) {
	if !m.hasBattle || !m.state.VoteReady() {
		return m, nil
	}
	return m, voteCmd(m.httpc, m.state.BattleID, w)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.resources.Shutdown()
	return m, tea.Quit
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.mode == viewLeaderboard {
		return m.viewLeaderboard()
	}
	return m.viewBattle()
}

func (m Model) viewBattle() string {
	var sections []string

	title := "DocParse Arena"
	if m.hasBattle {
		title += "  " + theme.StyleDimmed.Render(m.state.DocumentName)
	}
	sections = append(sections, theme.StyleHeader.Render(title))

	if !m.hasBattle {
		sections = append(sections, m.spin.View()+" starting battle...")
	} else {
		left := m.renderPane("Model A", m.state.A, m.renderA)
		right := m.renderPane("Model B", m.state.B, m.renderB)
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, right))
		sections = append(sections, m.renderFooter())
	}

	if m.status != "" {
		sections = append(sections, theme.StyleError.Render(m.status))
	}
	sections = append(sections, theme.StyleDimmed.Render("  1/2/3:vote  n:new battle  l:leaderboard  q:quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderPane draws one lane: phase header, then the markdown render when
// finished, the raw tail while streaming, or the error.
func (m Model) renderPane(label string, l battle.Lane, rendered string) string {
	w := m.paneWidth()
	phase := l.Phase.String()

	head := lipgloss.NewStyle().Foreground(theme.SideColor(strings.ToLower(label[len(label)-1:]))).Bold(true).Render(label)
	head += "  " + lipgloss.NewStyle().Foreground(theme.PhaseColor(phase)).Render(theme.PhaseGlyph(phase)+" "+phase)
	if l.LatencyMs != nil {
		head += theme.StyleDimmed.Render(fmt.Sprintf("  %dms", *l.LatencyMs))
	}

	var body string
	switch {
	case l.Phase == battle.Errored:
		msg := l.Err
		if msg == "" {
			msg = "failed"
		}
		body = theme.StyleError.Render(msg)
	case l.Phase == battle.Loading:
		body = m.spin.View() + " waiting for first token"
	case rendered != "":
		body = rendered
	default:
		body = tailLines(l.Buffer, m.paneHeight())
	}

	return theme.StyleBorder.Width(w).Height(m.paneHeight()).Render(head + "\n\n" + body)
}

func (m Model) renderFooter() string {
	if m.state.Vote != nil {
		v := m.state.Vote
		reveal := fmt.Sprintf("Winner: %s   A = %s (%s, ELO %d, %+d)   B = %s (%s, ELO %d, %+d)",
			v.Winner,
			v.ModelA.Name, v.ModelA.Provider, v.ModelA.Elo, v.EloChangeA,
			v.ModelB.Name, v.ModelB.Provider, v.ModelB.Elo, v.EloChangeB)
		return theme.StyleWinner.Render(reveal)
	}
	if m.state.VoteReady() {
		return theme.StyleHeader.Render("Both models finished — vote: [1] left  [2] right  [3] tie")
	}
	if m.state.Ended {
		return theme.StyleDimmed.Render("Battle ended")
	}
	return theme.StyleDimmed.Render("Streaming...")
}

func (m Model) viewLeaderboard() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render("Leaderboard"),
		m.board.View(),
		theme.StyleDimmed.Render("  esc:back  q:quit"),
	)
}

func (m Model) paneWidth() int {
	w := m.width/2 - 2
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) paneHeight() int {
	h := m.height - 8
	if h < 5 {
		h = 5
	}
	return h
}

func leaderboardRows(entries []client.LeaderboardEntry) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{
			strconv.Itoa(e.Rank),
			e.DisplayName,
			e.Provider,
			strconv.Itoa(e.Elo),
			strconv.Itoa(e.Wins),
			strconv.Itoa(e.Losses),
			fmt.Sprintf("%.0f%%", e.WinRate*100),
		})
	}
	return rows
}

// renderMarkdown renders lane text through Glamour; on any failure the raw
// text is shown instead.
func renderMarkdown(text string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// tailLines returns the last n lines of s, keeping the live stream pinned
// to the bottom of the pane.
func tailLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
