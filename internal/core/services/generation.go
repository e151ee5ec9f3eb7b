package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	log "github.com/sirupsen/logrus"

	"object-designer-client/internal/core/domain"
	ports "object-designer-client/internal/core/ports/output"
)

// ProgressFunc observes a running poll loop. It cannot influence it.
type ProgressFunc func(taskID string, elapsed time.Duration)

type PollSettings struct {
	LongPoll time.Duration
	Interval time.Duration
	Progress ProgressFunc
}

type SubmitRequest struct {
	Name        string
	Description string
	Model       string
}

type RunOptions struct {
	FetchCode bool
}

type RunResult struct {
	Task     *domain.GenerationTask
	Artifact *domain.Artifact
	Code     string
}

var errStillPending = errors.New("generation still pending")

type GenerationService struct {
	client     ports.ObjectDesignerClient
	versions   *domain.VersionGenerator
	poll       PollSettings
	newBackoff func() retry.Backoff
}

func NewGenerationService(client ports.ObjectDesignerClient, versions *domain.VersionGenerator, poll PollSettings) *GenerationService {
	if versions == nil {
		versions = domain.NewVersionGenerator()
	}
	interval := poll.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
		poll.Interval = interval
	}
	if poll.LongPoll <= 0 {
		poll.LongPoll = 10 * time.Second
	}
	return &GenerationService{
		client:   client,
		versions: versions,
		poll:     poll,
		newBackoff: func() retry.Backoff {
			return retry.NewConstant(interval)
		},
	}
}

// Submit creates a generation for a freshly issued version token.
func (s *GenerationService) Submit(ctx context.Context, req SubmitRequest) (*domain.GenerationTask, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &domain.Error{Kind: domain.ErrSubmission, Op: "submit", Message: "object name is required"}
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, &domain.Error{Kind: domain.ErrSubmission, Op: "submit", Message: "model is required"}
	}

	version := s.versions.Next()
	logger := log.WithFields(log.Fields{"step": "1/5", "version": version, "model": req.Model})
	logger.WithField("name", req.Name).Info("creating generation")

	id, err := s.client.CreateGeneration(ctx, ports.CreateGenerationRequest{
		Version:       version,
		LanguageModel: req.Model,
		Props:         domain.ObjectProps{Name: req.Name, Description: req.Description},
	})
	if err != nil {
		return nil, err
	}

	logger.WithField("task_id", id).Info("generation created")
	return &domain.GenerationTask{
		ID:          id,
		Version:     version,
		Name:        req.Name,
		Description: req.Description,
		Model:       req.Model,
	}, nil
}

// WaitEnded long-polls until the task is terminal. There is no retry limit;
// ctx is the only way to bound it.
func (s *GenerationService) WaitEnded(ctx context.Context, taskID string) error {
	logger := log.WithFields(log.Fields{"step": "2/5", "task_id": taskID})
	logger.WithField("long_poll_ms", s.poll.LongPoll.Milliseconds()).Info("waiting for generation to end")

	progress := s.poll.Progress
	if progress == nil {
		progress = throttledProgress(logger, time.Second)
	}

	start := time.Now()
	err := retry.Do(ctx, s.newBackoff(), func(ctx context.Context) error {
		ended, err := s.client.PollEnded(ctx, taskID, s.poll.LongPoll)
		progress(taskID, time.Since(start))
		if err != nil {
			return err
		}
		if !ended {
			return retry.RetryableError(errStillPending)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.WithField("elapsed", time.Since(start).Round(100*time.Millisecond).String()).Info("generation ended")
	return nil
}

// throttledProgress logs elapsed wait time at most once per every.
func throttledProgress(logger *log.Entry, every time.Duration) ProgressFunc {
	var last time.Duration
	return func(_ string, elapsed time.Duration) {
		if elapsed-last < every {
			return
		}
		last = elapsed
		logger.WithField("elapsed", elapsed.Round(100*time.Millisecond).String()).Info("waiting")
	}
}

// Resolve fetches the object state and requires version to have succeeded.
func (s *GenerationService) Resolve(ctx context.Context, taskID, version string) (*domain.VersionEntry, error) {
	logger := log.WithFields(log.Fields{"step": "3/5", "task_id": taskID, "version": version})
	logger.Info("fetching object state")

	state, err := s.client.GetObjectState(ctx, taskID)
	if err != nil {
		return nil, err
	}
	entry, err := state.ResolveVersion(version)
	if err != nil {
		return nil, err
	}

	logger.WithField("status", entry.Status).Info("version resolved")
	return &entry, nil
}

func (s *GenerationService) FetchArtifact(ctx context.Context, taskID, version string) (*domain.Artifact, error) {
	logger := log.WithFields(log.Fields{"step": "4/5", "task_id": taskID, "version": version})
	logger.Info("fetching content")

	artifact, err := s.client.GetContent(ctx, taskID, version)
	if err != nil {
		return nil, err
	}

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "(none)"
	}
	logger.WithFields(log.Fields{
		"content_type": contentType,
		"bytes":        len(artifact.Data),
	}).Info("content received")
	return artifact, nil
}

func (s *GenerationService) FetchCode(ctx context.Context, taskID, version string) (string, error) {
	log.WithFields(log.Fields{"task_id": taskID, "version": version}).Info("fetching code")
	return s.client.GetCode(ctx, taskID, version)
}

// Publish registers the task's artifact downstream by URL.
func (s *GenerationService) Publish(ctx context.Context, task *domain.GenerationTask) error {
	contentURL := s.client.ContentURL(task.ID, task.Version)
	logger := log.WithFields(log.Fields{"step": "5/5", "task_id": task.ID, "url": contentURL})
	logger.Info("adding object to rooms")

	if err := s.client.AddToRooms(ctx, ports.AddToRoomsRequest{
		Props: task.Props(),
		URL:   contentURL,
	}); err != nil {
		return err
	}

	logger.Info("object added to rooms")
	return nil
}

// Run drives one generation through submit, wait, resolve, fetch and
// publish. Errors from any stage are returned as-is.
func (s *GenerationService) Run(ctx context.Context, req SubmitRequest, opts RunOptions) (*RunResult, error) {
	task, err := s.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.WaitEnded(ctx, task.ID); err != nil {
		return nil, err
	}
	if _, err := s.Resolve(ctx, task.ID, task.Version); err != nil {
		return nil, err
	}

	result := &RunResult{Task: task}
	if opts.FetchCode {
		if result.Code, err = s.FetchCode(ctx, task.ID, task.Version); err != nil {
			return nil, err
		}
	}
	if result.Artifact, err = s.FetchArtifact(ctx, task.ID, task.Version); err != nil {
		return nil, err
	}
	if err := s.Publish(ctx, task); err != nil {
		return nil, err
	}
	return result, nil
}
