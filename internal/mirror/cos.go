// Package mirror uploads archive files to an S3-compatible bucket (Tencent
// COS by default).
package mirror

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options holds the bucket credentials. All of SecretID, SecretKey, Region
// and Bucket must be set for mirroring to be enabled.
type Options struct {
	SecretID  string
	SecretKey string
	Region    string
	Bucket    string
	// Endpoint overrides the COS endpoint and switches to path-style
	// addressing.
	Endpoint string
}

func (o Options) complete() bool {
	return o.SecretID != "" && o.SecretKey != "" && o.Region != "" && o.Bucket != ""
}

// COS uploads files to a bucket. A COS built from incomplete options is
// disabled and every Upload is a no-op.
type COS struct {
	opts     Options
	uploader *manager.Uploader
}

// New creates a COS mirror.
func New(ctx context.Context, opts Options) (*COS, error) {
	if !opts.complete() {
		return &COS{opts: opts}, nil
	}

	ctxCfg, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	cfg, err := config.LoadDefaultConfig(ctxCfg,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.SecretID, opts.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("mirror: load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.endpoint())
		o.UsePathStyle = opts.Endpoint != ""
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return &COS{opts: opts, uploader: manager.NewUploader(client)}, nil
}

func (o Options) endpoint() string {
	if o.Endpoint != "" {
		return strings.TrimRight(o.Endpoint, "/")
	}
	return fmt.Sprintf("https://cos.%s.myqcloud.com", o.Region)
}

// Enabled reports whether uploads are performed.
func (c *COS) Enabled() bool {
	return c.uploader != nil
}

// PublicURL returns the URL an object stored at key is served from.
func (c *COS) PublicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if c.opts.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.opts.Endpoint, "/"), c.opts.Bucket, key)
	}
	return fmt.Sprintf("https://%s.cos.%s.myqcloud.com/%s", c.opts.Bucket, c.opts.Region, key)
}

// Upload stores the file at localPath under key and returns its public URL.
// When the mirror is disabled it returns "" and no error.
func (c *COS) Upload(ctx context.Context, localPath, key string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("mirror: open %s: %w", localPath, err)
	}
	defer f.Close()

	key = strings.TrimLeft(key, "/")
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.opts.Bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := c.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("mirror: upload %s: %w", key, err)
	}
	return c.PublicURL(key), nil
}
