package service

import (
	"context"
	"log/slog"

	"github.com/wacspeakers/speakerdir/internal/client"
	"github.com/wacspeakers/speakerdir/internal/models"
	"github.com/wacspeakers/speakerdir/internal/state"
)

// ProfileUnavailableMessage is shown when a speaker detail cannot be loaded.
const ProfileUnavailableMessage = "This profile is not available."

// SearchService drives the speaker listing and detail view.
type SearchService struct {
	store    *state.Store
	gateway  Gateway
	nav      Navigator
	notifier Notifier
	logger   *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(store *state.Store, gateway Gateway, nav Navigator, notifier Notifier, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{
		store:    store,
		gateway:  gateway,
		nav:      nav,
		notifier: notifier,
		logger:   logger,
	}
}

// UpdateSearchParams merges params into the current query. It does not fetch.
func (s *SearchService) UpdateSearchParams(params models.SearchParams) {
	s.store.Dispatch(state.UpdateSearchParams{Params: params})
}

// FetchSpeakers requests the listing described by q and merges or replaces
// the results according to q.Append. Failures are logged and leave the state
// untouched. A response that arrives after a newer fetch was issued is
// dropped.
func (s *SearchService) FetchSpeakers(ctx context.Context, q models.SearchQuery) error {
	return s.fetch(ctx, s.store.Begin(state.SpeakerList), q)
}

// fetch runs the list request of generation gen and settles it. The
// intents in also are applied together with the results, and only if they
// are.
func (s *SearchService) fetch(ctx context.Context, gen uint64, q models.SearchQuery, also ...state.Intent) error {
	defer s.store.Finish(state.SpeakerList)

	apiQuery := client.EncodeQuery(q, false)
	displayQuery := client.EncodeQuery(q, true)

	results, err := s.gateway.ListProfiles(ctx, apiQuery)
	if err != nil {
		s.logger.Warn("fetch speakers failed", "query", apiQuery, "error", err)
		return reported(err)
	}

	update := state.UpdateSpeakers{Results: results, Append: q.Append, Limit: q.Limit}
	if !s.store.DispatchLatest(state.SpeakerList, gen, append(also, update)...) {
		return nil
	}
	s.nav.SetQuery(displayQuery)
	s.logger.Debug("speakers fetched", "query", apiQuery, "count", len(results))
	return nil
}

// Refresh fetches the current query again.
func (s *SearchService) Refresh(ctx context.Context) error {
	return s.FetchSpeakers(ctx, s.store.Search().Query)
}

// Search starts a fresh listing for q from the home route. An empty q
// returns to the unfiltered listing.
func (s *SearchService) Search(ctx context.Context, q string) error {
	s.nav.Navigate(HomeRoute)
	s.UpdateSearchParams(models.NewSearch(q))
	return s.Refresh(ctx)
}

// Loading reports whether a listing request is still running.
func (s *SearchService) Loading() bool {
	return s.store.Pending(state.SpeakerList)
}

// LoadMore fetches the page after the current one and appends it.
// It is a no-op once the listing is exhausted, and while another list
// request is still running. The query offset only advances together with
// the page it describes, so a failed or superseded page leaves it alone.
func (s *SearchService) LoadMore(ctx context.Context) error {
	gen, ok := s.store.BeginIdle(state.SpeakerList)
	if !ok {
		s.logger.Debug("load more skipped, listing still loading")
		return nil
	}
	current := s.store.Search()
	if current.EndOfResults {
		s.store.Finish(state.SpeakerList)
		return nil
	}
	offset := current.Query.Offset + current.Query.Limit
	appendResults := true
	params := models.SearchParams{Offset: &offset, Append: &appendResults}
	return s.fetch(ctx, gen, current.Query.Merge(params), state.UpdateSearchParams{Params: params})
}

// GetSpeaker loads one speaker into the detail view. When fullNameHint is
// not the speaker's canonical slug the user is redirected to the canonical
// route. Failures notify the user and return home.
func (s *SearchService) GetSpeaker(ctx context.Context, id int64, fullNameHint string) error {
	gen := s.store.Begin(state.SpeakerDetail)
	defer s.store.Finish(state.SpeakerDetail)
	speaker, err := s.gateway.GetProfile(ctx, id)
	if err != nil {
		s.logger.Warn("get speaker failed", "id", id, "error", err)
		if s.store.Latest(state.SpeakerDetail, gen) {
			s.notifier.Notify(ProfileUnavailableMessage)
			s.nav.Navigate(HomeRoute)
		}
		return reported(err)
	}

	if !s.store.DispatchLatest(state.SpeakerDetail, gen, state.UpdateSpeaker{Result: speaker}) {
		return nil
	}
	if fullNameHint != models.SpeakerNamePath(speaker) {
		s.nav.Navigate(models.SpeakerProfilePath(speaker))
	}
	return nil
}
