package models

import "time"

// UploadStatus is the lifecycle state of an extraction job.
type UploadStatus string

const (
	StatusPending    UploadStatus = "pending"
	StatusProcessing UploadStatus = "processing"
	StatusCompleted  UploadStatus = "completed"
	StatusFailed     UploadStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s UploadStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// InputKind distinguishes file uploads from typed descriptions.
type InputKind string

const (
	InputFile InputKind = "file"
	InputText InputKind = "text"
)

// SubmittedInput is one raw input of a submission. Immutable once the job is
// created.
type SubmittedInput struct {
	Kind        InputKind `json:"kind"`
	Filename    string    `json:"filename,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Data        []byte    `json:"-"`
	Text        string    `json:"text,omitempty"`
}

// UploadJob tracks one asynchronous extraction.
type UploadJob struct {
	ID          string           `json:"job_id"`
	Status      UploadStatus     `json:"status"`
	Progress    int              `json:"progress"`
	Inputs      []SubmittedInput `json:"inputs,omitempty"`
	Receipt     *Receipt         `json:"receipt,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}
