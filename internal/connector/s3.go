package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/fenwicklabs/orchestrator/internal/conductor"
	"github.com/fenwicklabs/orchestrator/internal/orcerr"
)

func init() {
	conductor.Register(conductor.RoleStorage, "s3", func(bag conductor.Bag) (any, error) {
		return NewS3(context.Background(), S3Options{
			Bucket:          bagString(bag, "bucket", ""),
			Region:          bagString(bag, "region", "us-east-1"),
			Endpoint:        bagString(bag, "endpoint", ""),
			AccessKeyID:     bagString(bag, "access_key_id", ""),
			SecretAccessKey: bagString(bag, "secret_access_key", ""),
		})
	})
}

// expiresMetaKey is the S3 object metadata key used to emulate Connector's
// per-key TTL, since S3 has no native per-object expiry outside bucket
// lifecycle rules (which operate on prefixes, not arbitrary keys).
const expiresMetaKey = "expires-at"

// S3Options configures the S3 backend.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3 is the Connector backend for S3-compatible object storage: one
// object per key, TTL carried as object metadata.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 builds an S3 client from the supplied credentials/region (or the
// default AWS credential chain if AccessKeyID is empty) and verifies the
// bucket is reachable, failing with orcerr.ErrConnectorInitFail otherwise.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("connector: s3 bucket is required: %w", orcerr.ErrConnectorInitFail)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("connector: s3 load aws config: %w: %w", orcerr.ErrConnectorInitFail, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.Endpoint != ""
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(opts.Bucket)}); err != nil {
		return nil, fmt.Errorf("connector: s3 head bucket %s: %w: %w", opts.Bucket, orcerr.ErrConnectorInitFail, err)
	}

	return &S3{client: client, bucket: opts.Bucket}, nil
}

func (c *S3) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("connector: s3 get %q: %w", key, err)
	}
	defer out.Body.Close()

	if expires, ok := out.Metadata[expiresMetaKey]; ok {
		if unix, err := strconv.ParseInt(expires, 10, 64); err == nil {
			if time.Now().After(time.Unix(unix, 0)) {
				return nil, nil
			}
		}
	}

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("connector: s3 read %q: %w", key, err)
	}
	return data, nil
}

func (c *S3) Set(ctx context.Context, key string, value []byte, ex int) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(value),
	}
	if ex > 0 {
		expiresAt := time.Now().Add(time.Duration(ex) * time.Second).Unix()
		input.Metadata = map[string]string{expiresMetaKey: strconv.FormatInt(expiresAt, 10)}
	}
	if _, err := c.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("connector: s3 put %q: %w", key, err)
	}
	return nil
}

func (c *S3) Delete(ctx context.Context, key string) (int, error) {
	if _, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("connector: s3 head %q: %w", key, err)
	}
	if _, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return 0, fmt.Errorf("connector: s3 delete %q: %w", key, err)
	}
	return 1, nil
}

func (c *S3) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("connector: s3 list: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			ok, err := filepath.Match(pattern, key)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, key)
			}
		}
	}
	return out, nil
}

func (c *S3) GracefulShutdown(_ context.Context) error {
	return nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
