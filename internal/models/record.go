package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowRecord is a completed business-process submission (leave request,
// expense report or timesheet entry), stored under its category.
type WorkflowRecord struct {
	gorm.Model
	RecordID    string    `gorm:"uniqueIndex;not null" json:"record_id"`
	Category    string    `gorm:"index;not null" json:"category"` // leave_requests, expenses, timesheets
	Fields      string    `json:"fields"`                         // JSON map of slot name -> value
	Status      string    `gorm:"default:'submitted'" json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (r *WorkflowRecord) BeforeCreate(tx *gorm.DB) error {
	if r.RecordID == "" {
		r.RecordID = "WF-" + uuid.NewString()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now()
	}
	return nil
}
