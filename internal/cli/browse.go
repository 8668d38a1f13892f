package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"github.com/wacspeakers/speakerdir/internal/config"
	"github.com/wacspeakers/speakerdir/internal/models"
	"github.com/wacspeakers/speakerdir/internal/service"
	"github.com/wacspeakers/speakerdir/internal/state"
)

var browseCmd = &cobra.Command{
	Use:   "browse [query]",
	Short: "Browse speakers interactively",
	Long: `Browse the speaker directory in an interactive list.

Keys:
  up/k, down/j  move the cursor
  enter         open the selected speaker
  esc           back to the list
  m             load more speakers
  /             search
  r             reload
  q             quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

// snapshotMsg carries a store snapshot into the program.
type snapshotMsg state.Snapshot

// fetchDoneMsg reports the end of a Gateway round trip.
type fetchDoneMsg struct {
	err error
}

// browseModel is the bubbletea model of the interactive list.
type browseModel struct {
	search    *service.SearchService
	loc       *location
	notifier  *styledNotifier
	snapshots <-chan state.Snapshot

	snap    state.Snapshot
	spinner spinner.Model
	input   textinput.Model
	theme   Theme

	cursor    int
	pending   int
	selected  int64
	searching bool
	detail    bool
	initialQ  string
}

func newBrowseModel(svc *service.SearchService, loc *location, n *styledNotifier, snapshots <-chan state.Snapshot, initial state.Snapshot, q string) browseModel {
	input := textinput.New()
	input.Placeholder = "search speakers"
	input.Prompt = "/ "

	return browseModel{
		search:    svc,
		loc:       loc,
		notifier:  n,
		snapshots: snapshots,
		snap:      initial,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		input:     input,
		theme:     defaultTheme,
		pending:   1,
		initialQ:  q,
	}
}

// Init loads the first page and starts listening to the store.
func (m browseModel) Init() tea.Cmd {
	q := m.initialQ
	return tea.Batch(
		m.spinner.Tick,
		waitForSnapshot(m.snapshots),
		run(func(ctx context.Context) error { return m.search.Search(ctx, q) }),
	)
}

// Update handles messages and returns the updated model.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg.String(), msg)

	case snapshotMsg:
		m.snap = state.Snapshot(msg)
		if n := len(m.snap.Search.Results); m.cursor >= n {
			m.cursor = max(n-1, 0)
		}
		return m, waitForSnapshot(m.snapshots)

	case fetchDoneMsg:
		// Failures are already logged or notified by the service.
		if m.pending > 0 {
			m.pending--
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.searching {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey applies one key press. msg is forwarded to the search box
// while it has focus.
func (m browseModel) handleKey(key string, msg tea.Msg) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.searching {
		switch key {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			m.searching = false
			m.detail = false
			m.cursor = 0
			m.input.Blur()
			m.pending++
			return m, run(func(ctx context.Context) error { return m.search.Search(ctx, q) })
		case "esc":
			m.searching = false
			m.input.Blur()
			return m, nil
		}
		if msg == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		m.input.SetValue(m.snap.Search.Query.Q)
		return m, m.input.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Search.Results)-1 {
			m.cursor++
		}
	case "m":
		if m.detail || m.snap.Search.EndOfResults || m.search.Loading() {
			return m, nil
		}
		m.pending++
		return m, run(m.search.LoadMore)
	case "r":
		m.pending++
		return m, run(m.search.Refresh)
	case "enter":
		results := m.snap.Search.Results
		if m.detail || len(results) == 0 {
			return m, nil
		}
		sp := results[m.cursor]
		m.detail = true
		m.selected = sp.ID
		m.pending++
		return m, run(func(ctx context.Context) error {
			return m.search.GetSpeaker(ctx, sp.ID, models.SpeakerNamePath(sp))
		})
	case "esc":
		m.detail = false
	}
	return m, nil
}

// run executes fn off the update loop and reports completion. Callers
// count it as pending.
func run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return fetchDoneMsg{err: fn(context.Background())}
	}
}

func waitForSnapshot(ch <-chan state.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// View renders the list or the detail view.
func (m browseModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m browseModel) renderContent() string {
	var b strings.Builder

	b.WriteString(m.theme.hintStyle().Render(m.loc.String()))
	if m.pending > 0 {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if m.detail {
		if sp := m.snap.Search.Speaker; sp != nil && sp.ID == m.selected {
			b.WriteString(formatSpeakerDetail(m.theme, *sp))
		} else if m.pending == 0 {
			b.WriteString("Speaker not loaded.\n")
		}
	} else {
		m.renderList(&b)
	}

	if msg := m.notifier.Last(); msg != "" {
		b.WriteString("\n" + m.theme.noticeStyle().Render("● "+msg) + "\n")
	}
	if m.searching {
		b.WriteString("\n" + m.input.View() + "\n")
	} else {
		b.WriteString("\n" + m.theme.hintStyle().Render(m.keyHint()) + "\n")
	}
	return b.String()
}

func (m browseModel) renderList(b *strings.Builder) {
	results := m.snap.Search.Results
	if len(results) == 0 {
		if m.pending == 0 {
			b.WriteString("No speakers found.\n")
		}
		return
	}

	for i, sp := range results {
		cursor := "  "
		if i == m.cursor {
			cursor = m.theme.titleStyle().Render("> ")
		}
		name := sp.FullName()
		if name == "" {
			name = fmt.Sprintf("speaker %d", sp.ID)
		}
		b.WriteString(cursor + name + "\n")
	}

	if m.snap.Search.EndOfResults {
		b.WriteString(m.theme.hintStyle().Render(fmt.Sprintf("\n%d speakers, end of results.", len(results))) + "\n")
	} else {
		b.WriteString(m.theme.hintStyle().Render(fmt.Sprintf("\n%d speakers, press m to load more.", len(results))) + "\n")
	}
}

func (m browseModel) keyHint() string {
	if m.detail {
		return "esc back • q quit"
	}
	return "↑/↓ move • enter open • m more • / search • q quit"
}

func runBrowse(cmd *cobra.Command, args []string) error {
	var q string
	if len(args) > 0 {
		q = args[0]
	}

	// The terminal belongs to the program; keep logs in the file only.
	if closeLog != nil {
		_ = closeLog()
	}
	logger, closeLog = config.SetupFileLogger(cfg.LogFile)
	gateway.SetLogger(logger)

	quietLoc := newLocation(nil)
	quietNotifier := newStyledNotifier(nil)
	svc := service.NewSearchService(store, gateway, quietLoc, quietNotifier, logger)

	snapshots := make(chan state.Snapshot, 1)
	unsubscribe := store.Subscribe(func(snap state.Snapshot) {
		// Keep only the newest snapshot.
		select {
		case snapshots <- snap:
		default:
			select {
			case <-snapshots:
			default:
			}
			select {
			case snapshots <- snap:
			default:
			}
		}
	})
	defer unsubscribe()

	model := newBrowseModel(svc, quietLoc, quietNotifier, snapshots, store.Snapshot(), q)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("browse UI error: %w", err)
	}
	return nil
}
