package dto

import (
	"time"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

// SubmitPassRequest is the multipart leave-request form. Times arrive
// as strings because the client sends either clock times ("15:04") or
// full timestamps; the service owns parsing.
type SubmitPassRequest struct {
	RegNo      string `form:"reg_no" validate:"required"`
	Purpose    string `form:"purpose" validate:"required,max=500"`
	LeaveTime  string `form:"leave_time" validate:"required"`
	ReturnTime string `form:"return_time" validate:"required"`
}

// ReviewPassRequest carries an authority decision for a pending pass.
type ReviewPassRequest struct {
	Status models.PassStatus `json:"status" binding:"required"`
	Note   string            `json:"note"`
}

// PassItem is one row of the client's "My Pass" screen.
type PassItem struct {
	PassID       string    `json:"pass_id"`
	Name         string    `json:"name"`
	RegNo        string    `json:"reg_no"`
	Department   string    `json:"department"`
	ClassName    string    `json:"class"`
	Purpose      string    `json:"purpose"`
	LeaveTime    time.Time `json:"leave_time"`
	ReturnTime   time.Time `json:"return_time"`
	Status       string    `json:"status"`
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

// VerifyRequest is the gate device's scan submission.
type VerifyRequest struct {
	QRContent string `form:"qr_content" validate:"required"`
}

// VerifyResult summarizes a granted scan for the checkpoint display.
type VerifyResult struct {
	PassID     string `json:"pass_id"`
	RegNo      string `json:"reg_no"`
	Name       string `json:"name"`
	Department string `json:"department"`
	ClassName  string `json:"class"`
	PassStatus string `json:"pass_status"`
}
