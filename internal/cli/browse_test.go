package cli

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wacspeakers/speakerdir/internal/client"
	"github.com/wacspeakers/speakerdir/internal/models"
	"github.com/wacspeakers/speakerdir/internal/service"
	"github.com/wacspeakers/speakerdir/internal/state"
)

func newTestBrowseModel(t *testing.T) (browseModel, *state.Store) {
	t.Helper()
	srv, _ := fakeGateway(t)

	st := state.NewStore(nil)
	l := newLocation(nil)
	n := newStyledNotifier(nil)
	svc := service.NewSearchService(st, client.New(srv.URL, 5*time.Second), l, n, nil)
	m := newBrowseModel(svc, l, n, make(chan state.Snapshot), st.Snapshot(), "")
	return m, st
}

// drain runs cmd and feeds its fetchDoneMsg back into m, then applies the
// latest store snapshot.
func drain(t *testing.T, m browseModel, st *state.Store, cmd tea.Cmd) browseModel {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, fetchDoneMsg{}, msg)

	next, _ := m.Update(msg)
	next, _ = next.Update(snapshotMsg(st.Snapshot()))
	return next.(browseModel)
}

func TestBrowseInitialLoad(t *testing.T) {
	m, st := newTestBrowseModel(t)
	assert.Equal(t, 1, m.pending)

	m = drain(t, m, st, run(func(ctx context.Context) error { return m.search.Search(ctx, "") }))

	assert.Zero(t, m.pending)
	content := m.renderContent()
	assert.Contains(t, content, "Jane Doe")
	assert.Contains(t, content, "Ada Lovelace")
	assert.Contains(t, content, "end of results")
}

func TestBrowseCursorAndDetail(t *testing.T) {
	m, st := newTestBrowseModel(t)
	st.Dispatch(state.UpdateSpeakers{Results: []models.Speaker{
		{ID: 7, FirstName: "Ada", LastName: "Lovelace"},
		{ID: 42, FirstName: "Jane", LastName: "Doe"},
	}})
	next, _ := m.Update(snapshotMsg(st.Snapshot()))
	m = next.(browseModel)

	next, _ = m.handleKey("j", nil)
	m = next.(browseModel)
	next, _ = m.handleKey("j", nil)
	m = next.(browseModel)
	assert.Equal(t, 1, m.cursor, "cursor stops at the last entry")

	next, cmd := m.handleKey("enter", nil)
	m = next.(browseModel)
	assert.True(t, m.detail)
	assert.Equal(t, int64(42), m.selected)

	m = drain(t, m, st, cmd)
	assert.Contains(t, m.renderContent(), "About Jane")
	assert.Equal(t, "/", m.loc.Path(), "canonical selection does not redirect")

	next, _ = m.handleKey("esc", nil)
	m = next.(browseModel)
	assert.False(t, m.detail)
}

func TestBrowseLoadMoreStopsAtEnd(t *testing.T) {
	m, st := newTestBrowseModel(t)
	st.Dispatch(state.UpdateSpeakers{Results: []models.Speaker{{ID: 1}}})
	next, _ := m.Update(snapshotMsg(st.Snapshot()))
	m = next.(browseModel)
	require.True(t, m.snap.Search.EndOfResults)

	_, cmd := m.handleKey("m", nil)
	assert.Nil(t, cmd)
}

func TestBrowseLoadMoreWaitsForListing(t *testing.T) {
	m, st := newTestBrowseModel(t)
	st.Dispatch(state.UpdateSpeakers{Results: make([]models.Speaker, models.DefaultLimit)})
	next, _ := m.Update(snapshotMsg(st.Snapshot()))
	m = next.(browseModel)
	require.False(t, m.snap.Search.EndOfResults)

	gen := st.Begin(state.SpeakerList)
	_, cmd := m.handleKey("m", nil)
	assert.Nil(t, cmd, "a page is still loading")

	st.DispatchLatest(state.SpeakerList, gen, state.UpdateSpeakers{Results: make([]models.Speaker, models.DefaultLimit)})
	st.Finish(state.SpeakerList)
	_, cmd = m.handleKey("m", nil)
	assert.NotNil(t, cmd)
}

func TestBrowseSearchBox(t *testing.T) {
	m, _ := newTestBrowseModel(t)

	next, _ := m.handleKey("/", nil)
	m = next.(browseModel)
	assert.True(t, m.searching)

	next, _ = m.handleKey("esc", nil)
	m = next.(browseModel)
	assert.False(t, m.searching)
}

func TestBrowseQuit(t *testing.T) {
	m, _ := newTestBrowseModel(t)
	_, cmd := m.handleKey("q", nil)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
