package models

// DefaultLimit is the page size of a speaker listing. A page shorter than
// this marks the end of the results.
const DefaultLimit = 20

// SearchQuery describes the next speaker listing request.
// An empty Q is the unfiltered listing.
type SearchQuery struct {
	Q        string `json:"q,omitempty"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
	Append   bool   `json:"append,omitempty"`
	Location string `json:"location,omitempty"`
	Identity string `json:"identity,omitempty"`
}

// DefaultSearchQuery is the first page of the unfiltered listing.
func DefaultSearchQuery() SearchQuery {
	return SearchQuery{Offset: 0, Limit: DefaultLimit}
}

// SearchParams is a partial SearchQuery. Nil fields are left untouched by
// Merge; a pointer to "" clears a string filter.
type SearchParams struct {
	Q        *string
	Offset   *int
	Limit    *int
	Append   *bool
	Location *string
	Identity *string
}

// Merge shallow-merges p into q. No validation is applied.
func (q SearchQuery) Merge(p SearchParams) SearchQuery {
	if p.Q != nil {
		q.Q = *p.Q
	}
	if p.Offset != nil {
		q.Offset = *p.Offset
	}
	if p.Limit != nil {
		q.Limit = *p.Limit
	}
	if p.Append != nil {
		q.Append = *p.Append
	}
	if p.Location != nil {
		q.Location = *p.Location
	}
	if p.Identity != nil {
		q.Identity = *p.Identity
	}
	return q
}

// NewSearch returns the params of a fresh search for q: first page,
// default page size, replacing the current list.
func NewSearch(q string) SearchParams {
	offset, limit, appendResults := 0, DefaultLimit, false
	return SearchParams{Q: &q, Offset: &offset, Limit: &limit, Append: &appendResults}
}
