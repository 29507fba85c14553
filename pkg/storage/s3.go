package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// FolderVideos is the S3 prefix for uploaded video objects.
	FolderVideos = "videos"
	// VideoContentType is the only media type accepted for upload.
	VideoContentType = "video/mp4"
)

// ErrNotFound is returned by FindExisting when no stored key matches.
var ErrNotFound = errors.New("storage: object not found")

// Asset identifies a stored video: key, canonical s3:// URI and a
// time-limited presigned access URL.
type Asset struct {
	Key        string `json:"key"`
	StorageURI string `json:"storage_uri"`
	AccessURL  string `json:"access_url"`
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region            string
	AccessKeyID       string
	SecretAccessKey   string
	VideoBucket       string
	PresignExpireSecs int
}

// S3 provides the content store operations: dedupe lookup, upload and
// presigned access URLs.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or environment
// (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := strings.TrimSpace(cfg.AccessKeyID)
	secretKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKey == "" || secretKey == "" {
		accessKey = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
		secretKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	} else {
		logger.Warn("S3 client using default credential chain")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	logger.Info("S3 storage ready", zap.String("region", cfg.Region), zap.String("bucket", cfg.VideoBucket))
	return &S3{client: client, uploader: uploader, cfg: cfg, logger: logger}, nil
}

// Ping verifies bucket access so credential problems surface at startup
// instead of on the first user action.
func (s *S3) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.VideoBucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.cfg.VideoBucket, err)
	}
	return nil
}

// VideoKey builds a collision-resistant object key:
// videos/{timestamp}_{id}{ext}. Extension is taken from the original name.
func VideoKey(originalName string, now time.Time, id string) string {
	ext := path.Ext(originalName)
	return fmt.Sprintf("%s/%s_%s%s", FolderVideos, now.Format("20060102_150405"), id, ext)
}

// MatchKey returns the first stored key containing filename as a substring,
// in listing order. Containment, not equality: a reupload of clip.mp4 matches
// videos/20240101_000000_abcd1234_clip.mp4.
func MatchKey(keys []string, filename string) (string, bool) {
	if filename == "" {
		return "", false
	}
	for _, k := range keys {
		if strings.Contains(k, filename) {
			return k, true
		}
	}
	return "", false
}

// FindExisting looks the original filename up under the videos/ prefix and,
// on a hit, returns the stored asset with a fresh presigned URL. Returns
// ErrNotFound when nothing matches.
func (s *S3) FindExisting(ctx context.Context, filename string) (*Asset, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.VideoBucket),
		Prefix: aws.String(FolderVideos + "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}
	key, ok := MatchKey(keys, filename)
	if !ok {
		return nil, ErrNotFound
	}
	url, err := s.presignGet(ctx, key)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("existing video reused", zap.String("key", key))
	return &Asset{Key: key, StorageURI: s.storageURI(key), AccessURL: url}, nil
}

// Upload stores the video under a freshly generated key and returns the
// asset with its canonical URI and presigned URL.
func (s *S3) Upload(ctx context.Context, originalName string, body io.Reader, size int64) (*Asset, error) {
	key := VideoKey(originalName, time.Now(), uuid.New().String()[:8])

	var contentLength *int64
	if size > 0 {
		contentLength = &size
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.VideoBucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(VideoContentType),
		ContentLength: contentLength,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	url, err := s.presignGet(ctx, key)
	if err != nil {
		return nil, err
	}
	s.logger.Info("video uploaded", zap.String("key", key), zap.Int64("size", size))
	return &Asset{Key: key, StorageURI: s.storageURI(key), AccessURL: url}, nil
}

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireSecs <= 0 {
		return time.Hour
	}
	return time.Duration(s.cfg.PresignExpireSecs) * time.Second
}

func (s *S3) presignGet(ctx context.Context, key string) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.VideoBucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

func (s *S3) storageURI(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.cfg.VideoBucket, key)
}

// IsAuthError reports whether err is an AWS credential/authorization failure,
// which callers surface distinctly from transient storage errors.
func IsAuthError(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "AccessDenied",
		"UnrecognizedClientException", "AccessDeniedException", "ExpiredToken":
		return true
	}
	return false
}
