package client

import (
	"net/url"
	"strconv"

	"github.com/wacspeakers/speakerdir/internal/models"
)

// EncodeQuery renders a SearchQuery as a query string. The API encoding
// carries paging fields; the display encoding is the shareable subset shown
// in the address bar. Every display parameter is also an API parameter.
func EncodeQuery(q models.SearchQuery, display bool) string {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.Location != "" {
		v.Set("location", q.Location)
	}
	if q.Identity != "" {
		v.Set("identity", q.Identity)
	}
	if !display {
		limit := q.Limit
		if limit <= 0 {
			limit = models.DefaultLimit
		}
		v.Set("offset", strconv.Itoa(q.Offset))
		v.Set("limit", strconv.Itoa(limit))
	}
	return v.Encode()
}

// DecodeQuery parses a display or API query string back into a SearchQuery.
// Missing paging fields fall back to the first default page.
func DecodeQuery(raw string) (models.SearchQuery, error) {
	v, err := url.ParseQuery(raw)
	if err != nil {
		return models.SearchQuery{}, err
	}
	q := models.DefaultSearchQuery()
	q.Q = v.Get("q")
	q.Location = v.Get("location")
	q.Identity = v.Get("identity")
	if s := v.Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			q.Offset = n
		}
	}
	if s := v.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			q.Limit = n
		}
	}
	return q, nil
}
