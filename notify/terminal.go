package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	descStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TerminalNotifier renders notifications as styled lines for the CLI.
type TerminalNotifier struct {
	lock sync.Mutex
	out  io.Writer
}

func NewTerminalNotifier(out io.Writer) *TerminalNotifier {
	return &TerminalNotifier{out: out}
}

func (t *TerminalNotifier) Notify(n Notification) {
	t.lock.Lock()
	defer t.lock.Unlock()

	line := styleFor(n.Level).Render(symbolFor(n.Level) + " " + n.Title)
	if n.Description != "" {
		line += " " + descStyle.Render(n.Description)
	}
	fmt.Fprintln(t.out, line)
}

func styleFor(level Level) lipgloss.Style {
	switch level {
	case LevelSuccess:
		return successStyle
	case LevelError:
		return errorStyle
	case LevelWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

func symbolFor(level Level) string {
	switch level {
	case LevelSuccess:
		return "✓"
	case LevelError:
		return "✗"
	case LevelWarning:
		return "!"
	default:
		return "i"
	}
}
