// Package dashboard renders the latest merged Summary in a terminal UI. It
// consumes the BookMerger RPC stream, displays bid/ask columns with a
// connection-status line and per-venue origin tags, and quits on q/ctrl+c.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bookmerge/internal/broadcast"
	"bookmerge/pkg/rpcpb"
	"bookmerge/pkg/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	bidStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	askStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

type summaryMsg types.Summary
type connectedMsg struct{}
type streamErrMsg struct{ err error }

// Model is a bubbletea.Model holding the most recently received Summary.
type Model struct {
	client broadcast.BookMergerClient
	stream broadcast.BookMerger_BookSummaryClient
	ctx    context.Context
	cancel context.CancelFunc

	summary  types.Summary
	status   types.ConnState
	lastErr  error
	quitting bool
}

// NewModel builds a Model that will dial client's stream on Init.
func NewModel(ctx context.Context, client broadcast.BookMergerClient) *Model {
	cctx, cancel := context.WithCancel(ctx)
	return &Model{client: client, ctx: cctx, cancel: cancel, status: types.Connecting}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.connect
}

func (m *Model) connect() tea.Msg {
	stream, err := m.client.BookSummary(m.ctx, &rpcpb.Empty{})
	if err != nil {
		return streamErrMsg{err}
	}
	m.stream = stream
	return connectedMsg{}
}

func (m *Model) recvNext() tea.Msg {
	v, err := m.stream.Recv()
	if err != nil {
		return streamErrMsg{err}
	}
	return summaryMsg(*v)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}
	case connectedMsg:
		m.status = types.Live
		return m, m.recvNext
	case summaryMsg:
		m.summary = types.Summary(msg)
		m.status = types.Live
		return m, m.recvNext
	case streamErrMsg:
		m.lastErr = msg.err
		m.status = types.Disconnected
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", headerStyle.Render(m.summary.Symbol.String()), m.statusLine())

	bidCol := renderLevels("BIDS", m.summary.Bids, bidStyle)
	askCol := renderLevels("ASKS", m.summary.Asks, askStyle)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, bidCol, "    ", askCol))

	if len(m.summary.Bids) > 0 && len(m.summary.Asks) > 0 {
		fmt.Fprintf(&b, "\n\nspread: %.8f\n", m.summary.Spread)
	}
	b.WriteString("\n(q to quit)\n")
	return b.String()
}

func (m *Model) statusLine() string {
	if m.lastErr != nil {
		return errorStyle.Render(fmt.Sprintf("[%s: %v]", m.status, m.lastErr))
	}
	return statusStyle.Render(fmt.Sprintf("[%s]", m.status))
}

func renderLevels(title string, levels []types.Level, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	for _, lv := range levels {
		fmt.Fprintf(&b, "%s\n", style.Render(fmt.Sprintf("%-6s %12.8f  %10.4f", lv.Venue, lv.Price, lv.Quantity)))
	}
	return b.String()
}
