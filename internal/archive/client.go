// Package archive uploads generated report artifacts to an
// S3-compatible object store.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the settings needed to connect to an S3-compatible store.
type Config struct {
	Endpoint  string // custom endpoint URL (e.g. http://localhost:3900)
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Client wraps an S3 client scoped to a single bucket.
type Client struct {
	s3     *s3.Client
	bucket string
	logger *slog.Logger
}

// New creates an archive Client from the given Config.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Client{
		s3:     s3.NewFromConfig(awsCfg, opts...),
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// Store uploads a report artifact under {businessUnit}/exports/{filename}
// and returns the object key.
func (c *Client) Store(ctx context.Context, businessUnit, filename string, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s/exports/%s", sanitize(businessUnit), filename)
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &c.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	c.logger.Info("archived report", "key", key, "bytes", len(data))
	return key, nil
}

// ListExports lists archived export keys for a business unit.
func (c *Client) ListExports(ctx context.Context, businessUnit string) ([]string, error) {
	prefix := sanitize(businessUnit) + "/exports/"
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: &c.bucket,
		Prefix: &prefix,
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list exports: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}

func sanitize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}
