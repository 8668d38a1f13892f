package state

import "github.com/wacspeakers/speakerdir/internal/models"

// SearchState is the speaker listing slice.
type SearchState struct {
	Query        models.SearchQuery `json:"searchParams"`
	Results      []models.Speaker   `json:"results"`
	EndOfResults bool               `json:"endOfResults"`
	// Speaker is the currently viewed detail, nil until one is loaded.
	Speaker *models.Speaker `json:"speaker"`
}

// NewSearchState returns the initial listing: no results, first page.
func NewSearchState() SearchState {
	return SearchState{
		Query:   models.DefaultSearchQuery(),
		Results: []models.Speaker{},
	}
}

// ReduceSearch applies in to s.
func ReduceSearch(s SearchState, in Intent) SearchState {
	switch in := in.(type) {
	case UpdateSpeakers:
		if in.Append {
			merged := make([]models.Speaker, 0, len(s.Results)+len(in.Results))
			merged = append(merged, s.Results...)
			merged = append(merged, in.Results...)
			s.Results = uniqByID(merged)
		} else {
			s.Results = uniqByID(in.Results)
		}
		// Only the new batch decides exhaustion, never the merged total.
		limit := in.Limit
		if limit <= 0 {
			limit = models.DefaultLimit
		}
		s.EndOfResults = len(in.Results) < limit
	case UpdateSpeaker:
		speaker := in.Result
		s.Speaker = &speaker
	case UpdateSearchParams:
		s.Query = s.Query.Merge(in.Params)
	}
	return s
}

// uniqByID drops every speaker whose id was already seen; the first
// occurrence wins. The result is a fresh slice.
func uniqByID(speakers []models.Speaker) []models.Speaker {
	seen := make(map[int64]struct{}, len(speakers))
	out := make([]models.Speaker, 0, len(speakers))
	for _, sp := range speakers {
		if _, dup := seen[sp.ID]; dup {
			continue
		}
		seen[sp.ID] = struct{}{}
		out = append(out, sp)
	}
	return out
}
