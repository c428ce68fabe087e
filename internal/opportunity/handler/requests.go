package handler

import (
	"strings"
	"time"

	"volunteerhub/internal/opportunity/models"
	dErrors "volunteerhub/pkg/domain-errors"
	"volunteerhub/pkg/platform/httputil"
)

// DraftRequest is the body of create and update. When duration_minutes is
// omitted it is derived from start and end.
type DraftRequest struct {
	Name            string     `json:"name" validate:"required,max=200"`
	Description     string     `json:"description" validate:"max=5000"`
	Location        string     `json:"location" validate:"max=255"`
	Start           *time.Time `json:"start" validate:"required"`
	End             *time.Time `json:"end" validate:"required"`
	DurationMinutes *int       `json:"duration_minutes" validate:"omitempty,min=0"`
	ImageURL        string     `json:"image_url" validate:"omitempty,url,max=2048"`
}

func (r *DraftRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
}

func (r *DraftRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := httputil.ValidateStruct(r); err != nil {
		return err
	}
	if r.Start.After(*r.End) {
		return dErrors.New(dErrors.CodeInvalidTimeRange, "start must not be after end")
	}
	return nil
}

func (r *DraftRequest) Draft() models.Draft {
	duration := int(r.End.Sub(*r.Start).Minutes())
	if r.DurationMinutes != nil {
		duration = *r.DurationMinutes
	}
	return models.Draft{
		Name:            r.Name,
		Description:     r.Description,
		Location:        r.Location,
		Start:           *r.Start,
		End:             *r.End,
		DurationMinutes: duration,
		ImageURL:        r.ImageURL,
	}
}

type ArchiveRequest struct {
	Archived *bool `json:"archived" validate:"required"`
}

func (r *ArchiveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return httputil.ValidateStruct(r)
}

type ImageRequest struct {
	ImageURL string `json:"image_url" validate:"required,url,max=2048"`
}

func (r *ImageRequest) Normalize() {
	r.ImageURL = strings.TrimSpace(r.ImageURL)
}

func (r *ImageRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return httputil.ValidateStruct(r)
}
