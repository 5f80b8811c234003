package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"recognition-pipeline/internal/model"
)

// Store is the persistence the Service needs. *store.Store implements it.
type Store interface {
	LoadDataset(ctx context.Context, tenant string, t model.RecordType) (string, error)
	SaveDataset(ctx context.Context, tenant string, t model.RecordType, header []string, body string, rows int) error
	SaveJob(ctx context.Context, job model.UploadJob) error
	UpdateJob(ctx context.Context, job model.UploadJob) error
	SaveJobError(ctx context.Context, jobID string, detail model.ErrorDetail) error
	SaveRun(ctx context.Context, tenant string, run *model.PipelineRun) error
	GetRun(ctx context.Context, tenant, name string) (model.PipelineRun, error)
}

// Options configures a Service.
type Options struct {
	DefaultCategory          string
	IncludeSubcategoryTokens bool
	ResolveSubcategories     bool
	Batch                    model.BatchOptions
	Transformations          []string
	Retry                    model.RetryConfig
	Radar                    RadarLimits
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		IncludeSubcategoryTokens: true,
		Batch:                    model.BatchOptions{Workers: 4, ChunkSize: 100},
		Transformations:          []string{"trimStrings"},
		Retry:                    DefaultRetryConfig,
		Radar:                    DefaultRadarLimits(),
	}
}

// Service wires the engines to persistence: uploads are parsed, transformed,
// validated, merged and saved one writer at a time per tenant dataset.
type Service struct {
	store  Store
	logger *zap.Logger
	opts   Options
	locks  keyedMutex
}

// NewService creates a Service. It fails on unknown default transformations.
func NewService(store Store, logger *zap.Logger, opts Options) (*Service, error) {
	if err := CheckTransformations(opts.Transformations); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Batch.Workers <= 0 {
		opts.Batch.Workers = 1
	}
	if opts.Batch.ChunkSize <= 0 {
		opts.Batch.ChunkSize = 100
	}
	return &Service{store: store, logger: logger, opts: opts}, nil
}

// UploadResult describes a finished upload.
type UploadResult struct {
	JobID      string              `json:"job_id"`
	Tenant     string              `json:"tenant"`
	RecordType model.RecordType    `json:"record_type"`
	Metrics    model.UploadMetrics `json:"metrics"`
	Warnings   []model.ErrorDetail `json:"warnings"`
	Dataset    model.Dataset       `json:"-"`
}

// UploadDataset merges delimited text into a tenant's persisted dataset and
// records the upload as a job. A nil opts.Transformations uses the service
// defaults.
func (s *Service) UploadDataset(ctx context.Context, tenant, recordType, text string, opts model.UploadOptions) (result UploadResult, err error) {
	if tenant == "" {
		return UploadResult{}, &ConfigurationError{Field: "tenant", Value: tenant, Reason: "must not be empty"}
	}
	t, err := model.ParseRecordType(recordType)
	if err != nil {
		return UploadResult{}, &ConfigurationError{Field: "record_type", Value: recordType, Reason: "expected awards, employees or departments"}
	}
	names := opts.Transformations
	if names == nil {
		names = s.opts.Transformations
	}
	if err := CheckTransformations(names); err != nil {
		return UploadResult{}, err
	}

	now := time.Now()
	job := model.UploadJob{
		ID:         uuid.NewString(),
		Tenant:     tenant,
		RecordType: t,
		Status:     model.JobRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	logger := s.logger.With(zap.String("job_id", job.ID), zap.String("tenant", tenant), zap.String("record_type", string(t)))
	tracker := NewUploadTracker(job.ID, logger)

	if err := s.retry(ctx, "save job", func(ctx context.Context) error { return s.store.SaveJob(ctx, job) }); err != nil {
		return UploadResult{}, err
	}
	logger.Info("upload started", zap.Int("bytes", len(text)))

	defer func() {
		job.Metrics = tracker.Complete()
		job.Status = model.JobCompleted
		if err != nil {
			job.Status = model.JobFailed
			tracker.RecordError(model.ErrorDetail{Stage: "upload", ErrorType: "upload_failed", Message: err.Error()})
		}
		s.finishJob(job, tracker.Errors(), logger)
	}()

	// --- PARSE ---
	tracker.StartStage(StageParse)
	parsed, err := ParseDetailed(text)
	if err != nil {
		return UploadResult{}, fmt.Errorf("parse %s upload: %w", t, err)
	}
	for _, fe := range parsed.Skipped {
		tracker.RecordError(model.ErrorDetail{Stage: StageParse, ErrorType: "malformed_row", Message: fe.Error(), Line: fe.Line})
	}
	tracker.RecordParse(parsed.Dataset.Len(), len(parsed.Skipped))
	tracker.EndStage(StageParse, parsed.Dataset.Len())

	// --- TRANSFORM ---
	tracker.StartStage(StageTransform)
	incoming, err := ApplyTransformations(parsed.Dataset, names)
	if err != nil {
		return UploadResult{}, err
	}
	tracker.EndStage(StageTransform, incoming.Len())

	unlock := s.locks.Lock(tenant + "/" + string(t))
	defer unlock()

	existing, err := s.loadDataset(ctx, tenant, t)
	if err != nil {
		return UploadResult{}, err
	}

	// --- VALIDATE ---
	tracker.StartStage(StageValidate)
	warnings, err := ValidateUpload(t, existing, incoming)
	if err != nil {
		return UploadResult{}, err
	}
	for _, w := range warnings {
		tracker.RecordError(w)
	}
	tracker.EndStage(StageValidate, incoming.Len())

	// --- MERGE ---
	tracker.StartStage(StageMerge)
	merged, stats, err := MergeDetailed(t, existing, incoming)
	if err != nil {
		return UploadResult{}, err
	}
	tracker.RecordMerge(stats)
	tracker.EndStage(StageMerge, merged.Len())

	// --- PERSIST ---
	tracker.StartStage(StagePersist)
	body := Serialize(merged)
	err = s.retry(ctx, "save dataset", func(ctx context.Context) error {
		return s.store.SaveDataset(ctx, tenant, t, merged.Header, body, merged.Len())
	})
	if err != nil {
		return UploadResult{}, err
	}
	tracker.EndStage(StagePersist, merged.Len())

	logger.Info("upload merged",
		zap.Int("existing", stats.Existing),
		zap.Int("incoming", stats.Incoming),
		zap.Int("merged", stats.Merged),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("skipped_rows", len(parsed.Skipped)))

	return UploadResult{
		JobID:      job.ID,
		Tenant:     tenant,
		RecordType: t,
		Metrics:    tracker.Complete(),
		Warnings:   warnings,
		Dataset:    merged,
	}, nil
}

// finishJob persists the job's final state and error details. It uses a
// fresh context so a cancelled upload is still recorded.
func (s *Service) finishJob(job model.UploadJob, details []model.ErrorDetail, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, d := range details {
		if err := s.store.SaveJobError(ctx, job.ID, d); err != nil {
			logger.Warn("failed to save job error", zap.Error(err))
			break
		}
	}
	if err := s.store.UpdateJob(ctx, job); err != nil {
		logger.Error("failed to update job", zap.Error(err))
		return
	}
	logger.Info("upload finished", zap.String("status", job.Status), zap.Duration("elapsed", job.Metrics.ProcessingTime))
}

// LoadDataset returns a tenant's persisted dataset, empty when none exists.
func (s *Service) LoadDataset(ctx context.Context, tenant, recordType string) (model.Dataset, error) {
	t, err := model.ParseRecordType(recordType)
	if err != nil {
		return model.Dataset{}, &ConfigurationError{Field: "record_type", Value: recordType, Reason: "expected awards, employees or departments"}
	}
	return s.loadDataset(ctx, tenant, t)
}

func (s *Service) loadDataset(ctx context.Context, tenant string, t model.RecordType) (model.Dataset, error) {
	text, err := s.store.LoadDataset(ctx, tenant, t)
	if errors.Is(err, model.ErrNotFound) {
		return model.Dataset{}, nil
	}
	if err != nil {
		return model.Dataset{}, err
	}
	d, err := Parse(text)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("stored %s dataset for tenant %s: %w", t, tenant, err)
	}
	return d, nil
}

// Classifier builds a classifier for tax with the service's options.
func (s *Service) Classifier(tax *model.Taxonomy) *Classifier {
	opts := ClassifierOptions{
		DefaultCategory:          s.opts.DefaultCategory,
		IncludeSubcategoryTokens: s.opts.IncludeSubcategoryTokens,
	}
	if s.opts.ResolveSubcategories {
		opts.Subcategories = KeywordSubcategoryScorer{}
	}
	return NewClassifier(tax, opts)
}

// ClassifyBatch classifies messages in chunks on a bounded number of
// goroutines. Output order matches input order.
func (s *Service) ClassifyBatch(ctx context.Context, tax *model.Taxonomy, msgs []model.Message) ([]model.Classification, error) {
	classifier := s.Classifier(tax)
	out := make([]model.Classification, len(msgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Batch.Workers)
	for start := 0; start < len(msgs); start += s.opts.Batch.ChunkSize {
		start := start
		end := min(start+s.opts.Batch.ChunkSize, len(msgs))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = classifier.Classify(msgs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matched := 0
	for _, c := range out {
		if c.Matched {
			matched++
		}
	}
	s.logger.Debug("batch classified",
		zap.Int("messages", len(msgs)),
		zap.Int("matched", matched),
		zap.Int("categories", classifier.Index().Len()))
	return out, nil
}

// SaveRun persists a run's documents for tenant.
func (s *Service) SaveRun(ctx context.Context, tenant string, run *model.PipelineRun) error {
	if tenant == "" {
		return &ConfigurationError{Field: "tenant", Value: tenant, Reason: "must not be empty"}
	}
	if run.Name == "" {
		return &ConfigurationError{Field: "name", Value: run.Name, Reason: "run name must not be empty"}
	}
	err := s.retry(ctx, "save run", func(ctx context.Context) error {
		return s.store.SaveRun(ctx, tenant, run)
	})
	if err != nil {
		return err
	}
	s.logger.Info("run saved", zap.String("tenant", tenant), zap.String("run", run.Name), zap.String("run_id", run.ID))
	return nil
}

// CompareRuns loads the named runs concurrently and compares them in the
// order given.
func (s *Service) CompareRuns(ctx context.Context, tenant string, names []string) (model.ComparisonData, error) {
	runs := make([]model.PipelineRun, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			run, err := s.store.GetRun(ctx, tenant, name)
			if err != nil {
				return fmt.Errorf("load run %s for tenant %s: %w", name, tenant, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.ComparisonData{}, err
	}
	return Compare(runs, s.opts.Radar), nil
}

func (s *Service) retry(ctx context.Context, name string, op func(context.Context) error) error {
	return withRetry(ctx, s.opts.Retry, s.logger, name, op)
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the lock for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
