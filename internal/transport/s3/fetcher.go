// Package s3 provides full source-document text from an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/retry"
)

// DefaultMaxObjectSize caps how much of one object is downloaded.
const DefaultMaxObjectSize = 64 << 20

// Config configures the S3 client.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	MaxObjectSize   int64
}

// objectGetter is the consumer interface over *awss3.Client (ISP).
type objectGetter interface {
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// Fetcher implements the full-text provider: it downloads an object and
// extracts its text, retrying transient failures.
type Fetcher struct {
	client  objectGetter
	bucket  string
	maxSize int64
	policy  retry.Policy
	logger  *zap.Logger
}

// New creates a fetcher with an S3 client built from cfg and the default AWS chain.
func New(ctx context.Context, cfg *Config, policy retry.Policy, logger *zap.Logger) (*Fetcher, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-2"
	}

	loadOptions := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	f := NewWithClient(client, bucket, policy, logger)
	if cfg.MaxObjectSize > 0 {
		f.maxSize = cfg.MaxObjectSize
	}
	return f, nil
}

// NewWithClient creates a fetcher over an existing client.
func NewWithClient(client objectGetter, bucket string, policy retry.Policy, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		bucket:  bucket,
		maxSize: DefaultMaxObjectSize,
		policy:  policy,
		logger:  logger,
	}
}

// FetchText downloads the object at key and returns its text. PDF objects are
// converted page by page; anything else is returned as-is. Failures come back
// as *domain.FetchError.
func (f *Fetcher) FetchText(ctx context.Context, key string) (string, error) {
	data, out := retry.DoValue(ctx, f.policy, func(ctx context.Context) ([]byte, error) {
		return f.download(ctx, key)
	})
	if out.Err != nil {
		f.logger.Warn("Full-text fetch failed",
			zap.String("bucket", f.bucket),
			zap.String("key", key),
			zap.Int("attempts", out.Attempts),
			zap.Error(out.Err),
		)
		return "", domain.NewFetchError(key, out.Err)
	}

	if !isPDF(key, data) {
		return string(data), nil
	}
	text, err := extractPDFText(data)
	if err != nil {
		return "", domain.NewFetchError(key, err)
	}

	f.logger.Debug("Full-text fetched",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
		zap.Int("attempts", out.Attempts),
		zap.Duration("elapsed", out.Elapsed),
	)
	return text, nil
}

func (f *Fetcher) download(ctx context.Context, key string) ([]byte, error) {
	resp, err := f.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isPermanent(err) {
			return nil, retry.Permanent(fmt.Errorf("s3 get object %s: %w", key, err))
		}
		return nil, fmt.Errorf("s3 get object %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, retry.Permanent(fmt.Errorf("object %s exceeds %d bytes", key, f.maxSize))
	}
	return data, nil
}

// isPermanent reports S3 errors that another attempt cannot fix.
func isPermanent(err error) bool {
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return true
		}
	}
	return false
}

func isPDF(key string, data []byte) bool {
	return strings.HasSuffix(strings.ToLower(key), ".pdf") || bytes.HasPrefix(data, []byte("%PDF-"))
}
