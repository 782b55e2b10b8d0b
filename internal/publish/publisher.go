// Package publish uploads finished report folders to S3-compatible object
// storage (AWS S3 or Cloudflare R2).
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader is the subset of manager.Uploader used by Publisher.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Config holds the object storage settings. Endpoint is only set for
// S3-compatible services such as R2; it switches to path-style addressing.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".md":   "text/markdown; charset=utf-8",
	".png":  "image/png",
	".html": "text/html; charset=utf-8",
}

// Publisher uploads every file of a run folder under PREFIX/YYYY-MM-DD/.
type Publisher struct {
	uploader Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Client builds an S3 client from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// New creates a Publisher backed by a multipart manager.Uploader.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("publish bucket is not configured")
	}
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithUploader(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, log), nil
}

// NewWithUploader creates a Publisher around an existing uploader.
func NewWithUploader(uploader Uploader, bucket, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{
		uploader: uploader,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		log:      log.With().Str("service", "publish").Logger(),
	}
}

// Bucket returns the destination bucket.
func (p *Publisher) Bucket() string {
	return p.bucket
}

// ObjectKey returns PREFIX/YYYY-MM-DD/name, without a leading slash when
// the prefix is empty.
func ObjectKey(prefix string, date time.Time, name string) string {
	return path.Join(strings.Trim(prefix, "/"), date.Format("2006-01-02"), name)
}

// Publish uploads the regular files in dir, in name order, and returns
// their object keys. The first failed upload aborts the publish.
func (p *Publisher) Publish(ctx context.Context, dir string, date time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read run folder: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("run folder %s has no files to publish", dir)
	}
	sort.Strings(names)

	start := time.Now()
	keys := make([]string, 0, len(names))
	for _, name := range names {
		key := ObjectKey(p.prefix, date, name)
		if err := p.upload(ctx, filepath.Join(dir, name), key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}

	p.log.Info().
		Str("bucket", p.bucket).
		Int("objects", len(keys)).
		Dur("elapsed", time.Since(start)).
		Msg("Report published")

	return keys, nil
}

func (p *Publisher) upload(ctx context.Context, filePath, key string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	contentType, ok := contentTypes[strings.ToLower(filepath.Ext(filePath))]
	if !ok {
		contentType = "application/octet-stream"
	}

	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to %s: %w", key, p.bucket, err)
	}

	p.log.Debug().Str("key", key).Msg("Object uploaded")
	return nil
}
