package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Cache stores each key as an object under prefix in bucket.
type S3Cache struct {
	s3     *s3.Client
	bucket string
	prefix string
}

var _ Cache = (*S3Cache)(nil)

func NewS3Cache(ctx context.Context, bucket, prefix, region string) (*S3Cache, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3CacheWithClient(s3.NewFromConfig(awsCfg), bucket, prefix), nil
}

func NewS3CacheWithClient(client *s3.Client, bucket, prefix string) *S3Cache {
	return &S3Cache{
		s3:     client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (c *S3Cache) objectKey(key string) *string {
	return aws.String(c.prefix + key)
}

func (c *S3Cache) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    c.objectKey(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s from s3: %w", key, err)
	}
	return resp.Body, nil
}

func (c *S3Cache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    c.objectKey(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head %s in s3: %w", key, err)
	}
	return true, nil
}

func (c *S3Cache) Put(ctx context.Context, key, value string, opts PutOptions) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         c.objectKey(key),
		Body:        strings.NewReader(value),
		ContentType: aws.String("application/json"),
	}
	if opts.Condition == PutIfNoneMatch {
		input.IfNoneMatch = aws.String("*")
	}
	if _, err := c.s3.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to put %s to s3: %w", key, err)
	}
	return nil
}
