package handler

import (
	dErrors "volunteerhub/pkg/domain-errors"
	"volunteerhub/pkg/platform/httputil"
)

type ApprovalRequest struct {
	AdminApproved *bool `json:"adminApproved" validate:"required"`
}

func (r *ApprovalRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return httputil.ValidateStruct(r)
}

type AttendanceRequest struct {
	DidAttend *bool `json:"didAttend" validate:"required"`
}

func (r *AttendanceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return httputil.ValidateStruct(r)
}
