package state

import "github.com/wacspeakers/speakerdir/internal/models"

// ReduceAccount applies in to r.
//
// Error intents clear the in-flight flag they belong to, so a failed request
// never leaves the record looking busy.
func ReduceAccount(r models.AccountRecord, in Intent) models.AccountRecord {
	switch in := in.(type) {
	case GetRequest:
		r.IsLoading = true
	case GetSuccess:
		r.IsInitialized = true
		r.IsLoading = false
		r = absorb(r, in.Data)
	case GetError:
		r.IsLoading = false
	case PostRequest, PutRequest:
		r.IsRequesting = true
	case PostSuccess:
		r.IsRequesting = false
		r = absorb(r, in.Data)
	case PutSuccess:
		r.IsRequesting = false
		r = absorb(r, in.Data)
	case PostError, PutError:
		r.IsRequesting = false
	case OnChange:
		r = absorb(r, in.Data)
	case LoginSuccess:
		fields := in.User.Clone()
		fields["id"] = in.ID
		if in.Token != "" {
			fields["token"] = in.Token
		}
		r = models.AccountRecord{IsAuthenticated: true, Fields: fields}
	case LogoutSuccess:
		r = models.NewAccountRecord()
	}
	return r
}

// absorb merges data into the record. The lifecycle flags may travel inside
// user payloads and are lifted onto the record instead of into Fields.
func absorb(r models.AccountRecord, data models.Fields) models.AccountRecord {
	if len(data) == 0 {
		return r
	}
	rest := data.Clone()
	for key, flag := range map[string]*bool{
		"isInitialized":   &r.IsInitialized,
		"isLoading":       &r.IsLoading,
		"isRequesting":    &r.IsRequesting,
		"isAuthenticated": &r.IsAuthenticated,
	} {
		if v, ok := rest[key]; ok {
			if b, ok := v.(bool); ok {
				*flag = b
			}
			delete(rest, key)
		}
	}
	r.Fields = r.Fields.Merge(rest)
	return r
}

// ProfileState is the signed-in user's speaker profile slice.
type ProfileState struct {
	IsLoading bool           `json:"isLoading"`
	Profile   models.Profile `json:"profile"`
}

// NewProfileState returns the logged-out profile slice.
func NewProfileState() ProfileState {
	return ProfileState{Profile: models.Profile{Fields: models.Fields{}}}
}

// ReduceProfile applies in to p.
func ReduceProfile(p ProfileState, in Intent) ProfileState {
	switch in := in.(type) {
	case ProfileRequest:
		p.IsLoading = true
	case ProfileSuccess:
		p.IsLoading = false
		p.Profile = models.Profile{Fields: in.Profile.Fields.Clone()}
	case GetError:
		p.IsLoading = false
	case ProfileLogout:
		p = NewProfileState()
	}
	return p
}
