package handler

import (
	"memoria/internal/preference"
	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

// PreferenceResponse is the HTTP response for
// PUT /people/{personID}/preference.
type PreferenceResponse struct {
	PersonID      id.PersonID      `json:"person_id"`
	Scope         string           `json:"scope"`
	ContributorID id.ContributorID `json:"contributor_id,omitzero"`
	Visibility    visibility.State `json:"visibility"`
}

// FromPreference converts a stored preference to an HTTP response.
func FromPreference(pref *preference.Preference) *PreferenceResponse {
	return &PreferenceResponse{
		PersonID:      pref.PersonID,
		Scope:         scopeName(pref.ContributorID),
		ContributorID: pref.ContributorID,
		Visibility:    pref.State,
	}
}
