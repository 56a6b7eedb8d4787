package s3

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var contentTypes = map[string]string{
	".json": "application/json",
	".csv":  "text/csv",
}

type Config struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint targets an S3 compatible store (MinIO, LocalStack) with path style addressing.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Uploader copies run artifacts to s3://<bucket>/<prefix>/<run id>/<file>.
type Uploader struct {
	bucket   string
	prefix   string
	uploader *manager.Uploader
}

// New resolves credentials from cfg, falling back to the default AWS chain.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newUploader(cfg.Bucket, cfg.Prefix, client), nil
}

func newUploader(bucket, prefix string, client manager.UploadAPIClient) *Uploader {
	return &Uploader{
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		uploader: manager.NewUploader(client),
	}
}

func (u *Uploader) Upload(ctx context.Context, runID, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	key := u.key(runID, filepath.Base(file))
	contentType := contentTypes[filepath.Ext(file)]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return "s3://" + u.bucket + "/" + key, nil
}

func (u *Uploader) key(runID, name string) string {
	return path.Join(u.prefix, runID, name)
}
