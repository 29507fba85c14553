// Package transcribe tracks asynchronous transcription jobs against Amazon
// Transcribe and retrieves their results.
package transcribe

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status mirrors the provider's job states.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether the status will never change again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Snapshot is a point-in-time view of one job. ResultURI is populated only
// when the job completed.
type Snapshot struct {
	JobID         string `json:"job_id"`
	Status        Status `json:"status"`
	ResultURI     string `json:"result_uri,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// API is the subset of the Amazon Transcribe client the tracker uses.
type API interface {
	StartTranscriptionJob(ctx context.Context, in *awstranscribe.StartTranscriptionJobInput, optFns ...func(*awstranscribe.Options)) (*awstranscribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *awstranscribe.GetTranscriptionJobInput, optFns ...func(*awstranscribe.Options)) (*awstranscribe.GetTranscriptionJobOutput, error)
}

// Config holds job submission settings.
type Config struct {
	LanguageCode     string
	MaxSpeakerLabels int
}

// Tracker starts and polls transcription jobs. It holds no job state itself;
// the current job id lives in the caller's session.
type Tracker struct {
	api       API
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
	newSuffix func() string
}

// NewTracker creates a job tracker on top of the given Transcribe API.
func NewTracker(api API, cfg Config, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSpeakerLabels <= 0 {
		cfg.MaxSpeakerLabels = 2
	}
	return &Tracker{
		api:       api,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		newSuffix: func() string { return uuid.New().String()[:8] },
	}
}

// NewClient creates a real Amazon Transcribe client.
func NewClient(ctx context.Context, region, accessKey, secretKey string) (*awstranscribe.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return awstranscribe.NewFromConfig(awsCfg), nil
}

// Start submits a new transcription job for the stored media and returns the
// generated job id. Speaker diarization is on (bounded), alternatives are off.
func (t *Tracker) Start(ctx context.Context, mediaURI string) (string, error) {
	jobID := fmt.Sprintf("transcription_%d_%s", t.now().Unix(), t.newSuffix())

	_, err := t.api.StartTranscriptionJob(ctx, &awstranscribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobID),
		Media:                &types.Media{MediaFileUri: aws.String(mediaURI)},
		MediaFormat:          types.MediaFormatMp4,
		LanguageCode:         types.LanguageCode(t.cfg.LanguageCode),
		Settings: &types.Settings{
			ShowSpeakerLabels: aws.Bool(true),
			MaxSpeakerLabels:  aws.Int32(int32(t.cfg.MaxSpeakerLabels)),
			ShowAlternatives:  aws.Bool(false),
		},
	})
	if err != nil {
		return "", fmt.Errorf("start transcription job: %w", err)
	}

	t.logger.Info("transcription job started", zap.String("job_id", jobID))
	return jobID, nil
}

// Poll returns the current snapshot of a job. It is side-effect-free and safe
// to call repeatedly; the caller decides the cadence.
func (t *Tracker) Poll(ctx context.Context, jobID string) (*Snapshot, error) {
	out, err := t.api.GetTranscriptionJob(ctx, &awstranscribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobID),
	})
	if err != nil {
		return nil, fmt.Errorf("get transcription job: %w", err)
	}
	job := out.TranscriptionJob
	if job == nil {
		return nil, fmt.Errorf("get transcription job %s: empty response", jobID)
	}

	snap := &Snapshot{JobID: jobID, Status: mapStatus(job.TranscriptionJobStatus)}
	switch snap.Status {
	case StatusCompleted:
		if job.Transcript != nil {
			snap.ResultURI = aws.ToString(job.Transcript.TranscriptFileUri)
		}
	case StatusFailed:
		snap.FailureReason = aws.ToString(job.FailureReason)
	}
	return snap, nil
}

// QUEUED and IN_PROGRESS both read as in progress; the provider's queue
// position is not interesting to the workflow.
func mapStatus(s types.TranscriptionJobStatus) Status {
	switch s {
	case types.TranscriptionJobStatusCompleted:
		return StatusCompleted
	case types.TranscriptionJobStatusFailed:
		return StatusFailed
	default:
		return StatusInProgress
	}
}
