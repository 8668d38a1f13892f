// Package state holds the client-side state slices of the speaker directory
// and the pure transitions that change them.
package state

import "github.com/wacspeakers/speakerdir/internal/models"

// Intent describes a desired state transition. Every reducer ignores the
// intents it does not own.
type Intent interface {
	intentName() string
}

// Search intents.
type (
	// UpdateSearchParams shallow-merges Params into the current query.
	UpdateSearchParams struct{ Params models.SearchParams }
	// UpdateSpeakers replaces or extends the result list. Limit is the page
	// size the batch was requested with; zero means models.DefaultLimit.
	UpdateSpeakers struct {
		Results []models.Speaker
		Append  bool
		Limit   int
	}
	// UpdateSpeaker sets the speaker shown in the detail view.
	UpdateSpeaker struct{ Result models.Speaker }
)

// Account intents. The Get family tracks session fetches, Post and Put track
// mutating requests.
type (
	GetRequest  struct{}
	GetSuccess  struct{ Data models.Fields }
	GetError    struct{ Err error }
	PostRequest struct{}
	PostSuccess struct{ Data models.Fields }
	PostError   struct{ Err error }
	PutRequest  struct{}
	PutSuccess  struct{ Data models.Fields }
	PutError    struct{ Err error }
	// OnChange merges form edits into the record.
	OnChange struct{ Data models.Fields }
	// LoginSuccess replaces the record with the authenticated user.
	LoginSuccess struct {
		User  models.Fields
		ID    any
		Token string
	}
	// LogoutSuccess resets the record to the logged-out default.
	LogoutSuccess struct{}
)

// Profile intents.
type (
	ProfileRequest struct{}
	ProfileSuccess struct{ Profile models.Profile }
	ProfileLogout  struct{}
)

func (UpdateSearchParams) intentName() string { return "speaker/update_search_params" }
func (UpdateSpeakers) intentName() string     { return "speaker/update_speakers" }
func (UpdateSpeaker) intentName() string      { return "speaker/update_speaker" }
func (GetRequest) intentName() string         { return "users/get_request" }
func (GetSuccess) intentName() string         { return "users/get_success" }
func (GetError) intentName() string           { return "users/get_error" }
func (PostRequest) intentName() string        { return "users/post_request" }
func (PostSuccess) intentName() string        { return "users/post_success" }
func (PostError) intentName() string          { return "users/post_error" }
func (PutRequest) intentName() string         { return "users/put_request" }
func (PutSuccess) intentName() string         { return "users/put_success" }
func (PutError) intentName() string           { return "users/put_error" }
func (OnChange) intentName() string           { return "users/on_change" }
func (LoginSuccess) intentName() string       { return "login_success" }
func (LogoutSuccess) intentName() string      { return "logout_success" }
func (ProfileRequest) intentName() string     { return "profile/get_request" }
func (ProfileSuccess) intentName() string     { return "profile/get_success" }
func (ProfileLogout) intentName() string      { return "profile/logout_success" }

// Name returns a stable identifier for logging.
func Name(in Intent) string {
	return in.intentName()
}
