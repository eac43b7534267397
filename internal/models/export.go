package models

import "time"

// ExportFormat selects the register export encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportJobStatus tracks the lifecycle of an asynchronous export.
type ExportJobStatus string

const (
	ExportQueued    ExportJobStatus = "queued"
	ExportRunning   ExportJobStatus = "running"
	ExportCompleted ExportJobStatus = "completed"
	ExportFailed    ExportJobStatus = "failed"
)

// ExportJob describes one requested enquiry register export.
type ExportJob struct {
	ID          string          `json:"id"`
	Format      ExportFormat    `json:"format"`
	Status      ExportJobStatus `json:"status"`
	FilePath    string          `json:"-"`
	Error       string          `json:"error,omitempty"`
	RequestedBy string          `json:"requested_by"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
