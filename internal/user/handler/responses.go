package handler

import (
	"volunteerhub/internal/user/models"
)

// ProfileResponse renders a profile with display labels next to the codes.
type ProfileResponse struct {
	*models.Profile
	DateOfBirth            string   `json:"date_of_birth"`
	ResidentialStatusLabel string   `json:"residential_status_label"`
	PreferenceLabels       []string `json:"preference_labels"`
}

func toProfileResponse(p *models.Profile) ProfileResponse {
	labels := make([]string, len(p.Preferences))
	for i, pref := range p.Preferences {
		labels[i] = pref.Label()
	}
	return ProfileResponse{
		Profile:                p,
		DateOfBirth:            p.DateOfBirth.Format("2006-01-02"),
		ResidentialStatusLabel: p.ResidentialStatus.Label(),
		PreferenceLabels:       labels,
	}
}
