package upload

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budget-buddy-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	mu      sync.Mutex
	receipt *models.Receipt
	err     error
	lastOpt models.ExtractOptions
	calls   int
}

func (s *stubExtractor) Extract(ctx context.Context, inputs []models.SubmittedInput, opts models.ExtractOptions) (*models.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastOpt = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.receipt, nil
}

func sampleReceipt() *models.Receipt {
	return &models.Receipt{
		MerchantDetails: models.MerchantDetails{Name: "Whole Foods"},
		PurchaseDate:    "15-01-2026",
		LineItems: []models.LineItem{
			{ItemName: "Milk", UnitPrice: 2.5, Quantity: 2, Price: 5, Category: "Groceries"},
		},
		TotalAmounts: models.TotalAmounts{Total: 5, PaymentMethod: "card"},
	}
}

func fileInput(name string, size int) models.SubmittedInput {
	return models.SubmittedInput{
		Kind:        models.InputFile,
		Filename:    name,
		ContentType: "image/jpeg",
		Data:        make([]byte, size),
	}
}

func textInput(text string) models.SubmittedInput {
	return models.SubmittedInput{Kind: models.InputText, Text: text}
}

func waitTerminal(t *testing.T, svc *Service, id string) models.UploadJob {
	t.Helper()
	var job models.UploadJob
	require.Eventually(t, func() bool {
		var err error
		job, err = svc.GetJob(id)
		return err == nil && job.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestCreateJobValidation(t *testing.T) {
	tests := []struct {
		name   string
		inputs []models.SubmittedInput
	}{
		{"no inputs", nil},
		{"too many files", []models.SubmittedInput{
			fileInput("a.jpg", 1), fileInput("b.jpg", 1), fileInput("c.jpg", 1),
			fileInput("d.jpg", 1), fileInput("e.jpg", 1), fileInput("f.jpg", 1),
		}},
		{"empty file", []models.SubmittedInput{fileInput("a.jpg", 0)}},
		{"oversized file", []models.SubmittedInput{fileInput("big.jpg", 200)}},
		{"bad content type", []models.SubmittedInput{{
			Kind: models.InputFile, Filename: "a.exe", ContentType: "application/octet-stream", Data: []byte{1},
		}}},
		{"empty description", []models.SubmittedInput{textInput("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubExtractor{receipt: sampleReceipt()}, Limits{MaxFileSize: 100, MaxFiles: 5}, time.Second)
			id, err := svc.CreateJob(tt.inputs, models.ExtractOptions{})

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Empty(t, id)
			assert.Empty(t, svc.ListJobs(), "rejected submissions must not create jobs")
		})
	}
}

func TestJobCompletes(t *testing.T) {
	svc := NewService(&stubExtractor{receipt: sampleReceipt()}, Limits{}, time.Second)

	id, err := svc.CreateJob([]models.SubmittedInput{fileInput("receipt.jpg", 10)}, models.ExtractOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job := waitTerminal(t, svc, id)
	assert.Equal(t, models.StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.Receipt)
	assert.Equal(t, "Whole Foods", job.Receipt.MerchantDetails.Name)
	assert.Nil(t, job.Inputs, "raw input bytes must not appear in snapshots")
	require.NotNil(t, job.CompletedAt)
}

func TestJobFailure(t *testing.T) {
	svc := NewService(&stubExtractor{err: errors.New("model unavailable")}, Limits{}, time.Second)

	id, err := svc.CreateJob([]models.SubmittedInput{textInput("coffee 3.50")}, models.ExtractOptions{})
	require.NoError(t, err)

	job := waitTerminal(t, svc, id)
	assert.Equal(t, models.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "model unavailable")
	assert.Nil(t, job.Receipt)
}

func TestTimeoutMessage(t *testing.T) {
	svc := NewService(&stubExtractor{err: context.DeadlineExceeded}, Limits{}, time.Second)

	id, err := svc.CreateJob([]models.SubmittedInput{textInput("lunch")}, models.ExtractOptions{})
	require.NoError(t, err)

	job := waitTerminal(t, svc, id)
	assert.Equal(t, models.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "timed out")
}

func TestGetJobUnknown(t *testing.T) {
	svc := NewService(&stubExtractor{}, Limits{}, time.Second)
	_, err := svc.GetJob("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteJob(t *testing.T) {
	svc := NewService(&stubExtractor{receipt: sampleReceipt()}, Limits{}, time.Second)
	id, err := svc.CreateJob([]models.SubmittedInput{textInput("groceries")}, models.ExtractOptions{})
	require.NoError(t, err)
	waitTerminal(t, svc, id)

	svc.DeleteJob(id)
	_, err = svc.GetJob(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListJobsNewestFirst(t *testing.T) {
	svc := NewService(&stubExtractor{receipt: sampleReceipt()}, Limits{}, time.Second)

	first, err := svc.CreateJob([]models.SubmittedInput{textInput("first")}, models.ExtractOptions{})
	require.NoError(t, err)
	waitTerminal(t, svc, first)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.CreateJob([]models.SubmittedInput{textInput("second")}, models.ExtractOptions{})
	require.NoError(t, err)
	waitTerminal(t, svc, second)

	jobs := svc.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, second, jobs[0].ID)
	assert.Equal(t, first, jobs[1].ID)
}

func TestReprocessUsesFeedback(t *testing.T) {
	stub := &stubExtractor{receipt: sampleReceipt()}
	svc := NewService(stub, Limits{}, time.Second)

	id, err := svc.CreateJob([]models.SubmittedInput{textInput("whole foods milk")}, models.ExtractOptions{})
	require.NoError(t, err)
	waitTerminal(t, svc, id)

	corrected := sampleReceipt()
	corrected.TotalAmounts.Total = 6.5
	stub.mu.Lock()
	stub.receipt = corrected
	stub.mu.Unlock()

	receipt, err := svc.Reprocess(context.Background(), id, models.ExtractOptions{UserFeedback: "total is 6.50"})
	require.NoError(t, err)
	assert.InDelta(t, 6.5, receipt.TotalAmounts.Total, 0.001)

	stub.mu.Lock()
	opts := stub.lastOpt
	stub.mu.Unlock()
	assert.Equal(t, "total is 6.50", opts.UserFeedback)
	require.NotNil(t, opts.Previous, "previous result must be passed along")

	job, err := svc.GetJob(id)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, job.Receipt.TotalAmounts.Total, 0.001)
}

func TestReprocessUnknownJob(t *testing.T) {
	svc := NewService(&stubExtractor{}, Limits{}, time.Second)
	_, err := svc.Reprocess(context.Background(), "missing", models.ExtractOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupOldJobs(t *testing.T) {
	svc := NewService(&stubExtractor{receipt: sampleReceipt()}, Limits{}, time.Second)

	id, err := svc.CreateJob([]models.SubmittedInput{textInput("old job")}, models.ExtractOptions{})
	require.NoError(t, err)
	waitTerminal(t, svc, id)
	time.Sleep(5 * time.Millisecond)

	removed := svc.CleanupOldJobs(time.Millisecond)
	assert.Equal(t, 1, removed)
	_, err = svc.GetJob(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupKeepsActiveJobs(t *testing.T) {
	svc := NewService(&stubExtractor{receipt: sampleReceipt()}, Limits{}, time.Second)

	id, err := svc.CreateJob([]models.SubmittedInput{textInput("fresh")}, models.ExtractOptions{})
	require.NoError(t, err)
	waitTerminal(t, svc, id)

	removed := svc.CleanupOldJobs(time.Hour)
	assert.Zero(t, removed)
	_, err = svc.GetJob(id)
	assert.NoError(t, err)
}

func TestInputsRetainedForServing(t *testing.T) {
	svc := NewService(&stubExtractor{receipt: sampleReceipt()}, Limits{}, time.Second)

	id, err := svc.CreateJob([]models.SubmittedInput{
		fileInput("front.jpg", 16),
		textInput("second page is torn"),
	}, models.ExtractOptions{})
	require.NoError(t, err)
	waitTerminal(t, svc, id)

	job, err := svc.GetJob(id)
	require.NoError(t, err)
	assert.Nil(t, job.Inputs, "snapshots never carry raw bytes")

	inputs, err := svc.Inputs(id)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "front.jpg", inputs[0].Filename)
	assert.Len(t, inputs[0].Data, 16)

	_, err = svc.Inputs("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
