package cli

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/wacspeakers/speakerdir/internal/metrics"
	"github.com/wacspeakers/speakerdir/internal/models"
)

// Theme holds the color scheme of command output.
type Theme struct {
	Title  lipgloss.Color
	Notice lipgloss.Color
	Route  lipgloss.Color
	Hint   lipgloss.Color
	Error  lipgloss.Color
}

var defaultTheme = Theme{
	Title:  lipgloss.Color("#5FAFD7"), // light blue
	Notice: lipgloss.Color("#00D787"), // green
	Route:  lipgloss.Color("#AF87FF"), // violet
	Hint:   lipgloss.Color("#6C6C6C"), // dim gray
	Error:  lipgloss.Color("#FF005F"), // red
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t Theme) noticeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Notice)
}

func (t Theme) routeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Route)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

// =============================================================================
// NAVIGATION
// =============================================================================

// location is the terminal stand-in for the address bar. It remembers the
// current route and the mirrored display query, and prints a hint whenever
// the route changes. A nil writer records silently.
type location struct {
	mu    sync.Mutex
	out   io.Writer
	theme Theme
	path  string
	query string
}

func newLocation(out io.Writer) *location {
	return &location{out: out, theme: defaultTheme, path: "/"}
}

// Navigate implements service.Navigator.
func (l *location) Navigate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if path == l.path {
		return
	}
	l.path = path
	l.query = ""
	if l.out != nil {
		fmt.Fprintln(l.out, l.theme.routeStyle().Render("→ "+path))
	}
}

// SetQuery implements service.Navigator.
func (l *location) SetQuery(display string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = display
}

// Path returns the current route.
func (l *location) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// String renders the route with its query, as a browser would show it.
func (l *location) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.query == "" {
		return l.path
	}
	return l.path + "?" + l.query
}

// ShareURL joins the current location onto base.
func (l *location) ShareURL(base string) string {
	u, err := url.Parse(strings.TrimSuffix(base, "/") + l.String())
	if err != nil {
		return base + l.String()
	}
	return u.String()
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// styledNotifier renders notifications on stderr and keeps the last one.
type styledNotifier struct {
	mu    sync.Mutex
	out   io.Writer
	theme Theme
	last  string
}

func newStyledNotifier(out io.Writer) *styledNotifier {
	return &styledNotifier{out: out, theme: defaultTheme}
}

// Notify implements service.Notifier.
func (n *styledNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = msg
	if n.out != nil {
		fmt.Fprintln(n.out, n.theme.noticeStyle().Render("● "+msg))
	}
}

// Last returns the most recent notification.
func (n *styledNotifier) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// =============================================================================
// RENDERING
// =============================================================================

const descriptionPreview = 100

// formatSpeakerLine renders one list entry.
func formatSpeakerLine(theme Theme, i int, sp models.Speaker) string {
	name := sp.FullName()
	if name == "" {
		name = fmt.Sprintf("speaker %d", sp.ID)
	}
	line := fmt.Sprintf("%d. %s %s", i+1, theme.titleStyle().Render(name), theme.hintStyle().Render(models.SpeakerProfilePath(sp)))
	if desc := preview(sp.Description); desc != "" {
		line += "\n   " + desc
	}
	return line
}

// formatSpeakerDetail renders the detail view.
func formatSpeakerDetail(theme Theme, sp models.Speaker) string {
	var b strings.Builder
	b.WriteString(theme.titleStyle().Render("About "+sp.FirstName) + "\n")
	if name := sp.FullName(); name != "" {
		fmt.Fprintf(&b, "Name: %s\n", name)
	}
	fmt.Fprintf(&b, "Profile: %s\n", models.SpeakerProfilePath(sp))
	if sp.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", sp.Description)
	}
	return b.String()
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= descriptionPreview {
		return s
	}
	return string([]rune(s)[:descriptionPreview]) + "..."
}

// printStats renders the Gateway request table shown with --verbose.
func printStats(out io.Writer, snap metrics.Snapshot) {
	if len(snap.Operations) == 0 {
		return
	}
	fmt.Fprintln(out, defaultTheme.hintStyle().Render("Gateway requests:"))
	for _, op := range snap.Operations {
		line := fmt.Sprintf("  %-40s %3d req  avg %6.1fms  max %5dms", op.Operation, op.Count, op.AvgTimeMs, op.MaxTimeMs)
		if op.Failures > 0 {
			line += defaultTheme.errorStyle().Render(fmt.Sprintf("  %d failed", op.Failures))
		}
		fmt.Fprintln(out, line)
	}
}
