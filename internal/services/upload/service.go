package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"budget-buddy-backend/internal/constants"
	"budget-buddy-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a job id is unknown. Distinct from a failed
// job, which still resolves to a well-formed snapshot.
var ErrNotFound = errors.New("upload job not found")

// ValidationError names the submission input that failed admission.
type ValidationError struct {
	Item    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("invalid submission: %s", e.Message)
	}
	return fmt.Sprintf("invalid input %q: %s", e.Item, e.Message)
}

// Extractor is the external AI collaborator that turns raw inputs into a
// structured receipt.
type Extractor interface {
	Extract(ctx context.Context, inputs []models.SubmittedInput, opts models.ExtractOptions) (*models.Receipt, error)
}

// Limits bounds a single submission.
type Limits struct {
	MaxFileSize int64
	MaxFiles    int
}

// Service owns the in-memory job table. All access to the table goes through
// the mutex; each job's state is only ever written by the one goroutine that
// processes it, plus the guarded status helpers here.
type Service struct {
	mu        sync.RWMutex
	jobs      map[string]*models.UploadJob
	extractor Extractor
	limits    Limits
	timeout   time.Duration
}

// NewService builds a job tracker around the given extractor.
func NewService(extractor Extractor, limits Limits, timeout time.Duration) *Service {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 5
	}
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = 10 * 1024 * 1024
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Service{
		jobs:      make(map[string]*models.UploadJob),
		extractor: extractor,
		limits:    limits,
		timeout:   timeout,
	}
}

// CreateJob validates the inputs, registers a pending job and schedules the
// extraction in the background. The returned id is immediately pollable.
func (s *Service) CreateJob(inputs []models.SubmittedInput, opts models.ExtractOptions) (string, error) {
	if err := s.validate(inputs); err != nil {
		return "", err
	}

	job := &models.UploadJob{
		ID:        uuid.New().String(),
		Status:    models.StatusPending,
		Progress:  0,
		Inputs:    inputs,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go s.process(job.ID, opts)

	return job.ID, nil
}

func (s *Service) validate(inputs []models.SubmittedInput) error {
	if len(inputs) == 0 {
		return &ValidationError{Message: "at least one file or description is required"}
	}
	if len(inputs) > s.limits.MaxFiles {
		return &ValidationError{Message: fmt.Sprintf("maximum %d inputs allowed, got %d", s.limits.MaxFiles, len(inputs))}
	}
	for _, in := range inputs {
		switch in.Kind {
		case models.InputText:
			if in.Text == "" {
				return &ValidationError{Message: "description must not be empty"}
			}
		case models.InputFile:
			if len(in.Data) == 0 {
				return &ValidationError{Item: in.Filename, Message: "file is empty"}
			}
			if int64(len(in.Data)) > s.limits.MaxFileSize {
				return &ValidationError{Item: in.Filename, Message: fmt.Sprintf("exceeds size limit of %d bytes", s.limits.MaxFileSize)}
			}
			if !constants.AdmissibleContentType(in.ContentType) {
				return &ValidationError{Item: in.Filename, Message: fmt.Sprintf("unsupported content type %q, must be an image or PDF", in.ContentType)}
			}
		default:
			return &ValidationError{Item: in.Filename, Message: "unknown input kind"}
		}
	}
	return nil
}

// process runs the extraction for one job. It is the only writer of that
// job's state transitions.
func (s *Service) process(id string, opts models.ExtractOptions) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[job %s] panic recovered: %v", shortID(id), r)
			s.fail(id, "extraction failed unexpectedly")
		}
	}()

	inputs, ok := s.begin(id)
	if !ok {
		return
	}
	s.setProgress(id, 30)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	receipt, err := s.extractor.Extract(ctx, inputs, opts)
	if err != nil {
		log.Printf("[job %s] extraction failed: %v", shortID(id), err)
		s.fail(id, userFacingMessage(err))
		return
	}

	s.setProgress(id, 90)
	s.complete(id, receipt)
	log.Printf("[job %s] completed", shortID(id))
}

// begin transitions pending -> processing and returns the immutable inputs.
func (s *Service) begin(id string) ([]models.SubmittedInput, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != models.StatusPending {
		return nil, false
	}
	job.Status = models.StatusProcessing
	job.Progress = 10
	job.UpdatedAt = time.Now()
	return job.Inputs, true
}

func (s *Service) setProgress(id string, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.UpdatedAt = time.Now()
}

func (s *Service) complete(id string, receipt *models.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	now := time.Now()
	job.Status = models.StatusCompleted
	job.Progress = 100
	job.Receipt = receipt
	job.UpdatedAt = now
	job.CompletedAt = &now
}

func (s *Service) fail(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	now := time.Now()
	job.Status = models.StatusFailed
	job.Progress = 100
	job.Error = message
	job.UpdatedAt = now
	job.CompletedAt = &now
}

// GetJob returns a snapshot of the job, or ErrNotFound.
func (s *Service) GetJob(id string) (models.UploadJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.UploadJob{}, ErrNotFound
	}
	return snapshot(job), nil
}

// Inputs returns the stored inputs of a job. Unlike job snapshots the raw
// bytes are included, so callers can serve the original scans back for review.
func (s *Service) Inputs(id string) ([]models.SubmittedInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]models.SubmittedInput(nil), job.Inputs...), nil
}

// ListJobs returns snapshots of every known job, newest first.
func (s *Service) ListJobs() []models.UploadJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UploadJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, snapshot(job))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// DeleteJob drops a job from the table, typically after a successful confirm.
func (s *Service) DeleteJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// UpdateResult replaces the receipt of a completed job after a reprocess.
func (s *Service) UpdateResult(id string, receipt *models.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	job.Receipt = receipt
	job.UpdatedAt = time.Now()
	return nil
}

// Reprocess re-runs the extraction for an existing job with user feedback
// and stores the new result. Unlike CreateJob this is synchronous: the caller
// is already holding the previous result and wants the corrected one back.
func (s *Service) Reprocess(ctx context.Context, id string, opts models.ExtractOptions) (*models.Receipt, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrNotFound
	}
	inputs := job.Inputs
	if opts.Previous == nil && job.Receipt != nil {
		prev := *job.Receipt
		opts.Previous = &prev
	}
	s.mu.RUnlock()

	if len(inputs) == 0 {
		return nil, &ValidationError{Message: "job has no stored inputs to reprocess"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	receipt, err := s.extractor.Extract(ctx, inputs, opts)
	if err != nil {
		return nil, err
	}
	if err := s.UpdateResult(id, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// CleanupOldJobs removes terminal jobs older than maxAge and returns how many
// were evicted.
func (s *Service) CleanupOldJobs(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.Status.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps terminal jobs on an interval until ctx is done.
func (s *Service) StartJanitor(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.CleanupOldJobs(maxAge); n > 0 {
					log.Printf("job janitor evicted %d finished jobs", n)
				}
			}
		}
	}()
}

func snapshot(job *models.UploadJob) models.UploadJob {
	cp := *job
	if job.Receipt != nil {
		r := *job.Receipt
		r.LineItems = append([]models.LineItem(nil), job.Receipt.LineItems...)
		cp.Receipt = &r
	}
	cp.Inputs = nil // inputs carry raw bytes, never returned in snapshots
	return cp
}

func userFacingMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "extraction timed out, please try again"
	}
	return fmt.Sprintf("failed to extract receipt data: %v", err)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
