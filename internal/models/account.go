package models

import "maps"

// Fields is a free-form user or profile payload as exchanged with the Gateway.
type Fields map[string]any

// Clone returns a shallow copy of f. A nil map clones to an empty one.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	maps.Copy(out, f)
	return out
}

// Merge returns a copy of f with every key of other written over it.
func (f Fields) Merge(other Fields) Fields {
	out := f.Clone()
	maps.Copy(out, other)
	return out
}

// String returns the value under key when it is a string.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// AccountRecord is the signed-in user's session and form state.
type AccountRecord struct {
	IsInitialized   bool `json:"isInitialized"`
	IsLoading       bool `json:"isLoading"`
	IsRequesting    bool `json:"isRequesting"`
	IsAuthenticated bool `json:"isAuthenticated"`

	// Fields holds user fields merged in from Gateway responses and from
	// form edits.
	Fields Fields `json:"fields,omitempty"`
}

// NewAccountRecord returns the logged-out default record.
func NewAccountRecord() AccountRecord {
	return AccountRecord{Fields: Fields{}}
}

// ID returns the user id, or "" before the record has been hydrated.
func (r AccountRecord) ID() string {
	return idString(r.Fields["id"])
}

// Clone returns a copy that shares nothing mutable with r.
func (r AccountRecord) Clone() AccountRecord {
	r.Fields = r.Fields.Clone()
	return r
}

// Profile is the nested speaker profile of the signed-in user.
type Profile struct {
	Fields Fields `json:"fields,omitempty"`
}

// ProfileFrom extracts the nested "profile" object of a user payload.
func ProfileFrom(user Fields) Profile {
	switch p := user["profile"].(type) {
	case map[string]any:
		return Profile{Fields: Fields(p)}
	case Fields:
		return Profile{Fields: p}
	}
	return Profile{Fields: Fields{}}
}

// Page returns the registration step the profile has not yet completed,
// or "" when registration is complete.
func (p Profile) Page() string {
	return p.Fields.String("page")
}

// RegistrationStep is one page of the multi-step registration flow.
type RegistrationStep struct {
	Next string
}

// RegistrationFlow maps a registration page to the route that follows it.
var RegistrationFlow = map[string]RegistrationStep{
	"account":  {Next: "/profile/about"},
	"about":    {Next: "/profile/speaking"},
	"speaking": {Next: "/profile/social"},
	"social":   {Next: "/profile"},
}

// NextRegistrationRoute returns the route that follows page; unknown or
// empty pages continue to the profile.
func NextRegistrationRoute(page string) string {
	if step, ok := RegistrationFlow[page]; ok {
		return step.Next
	}
	return "/profile"
}
