// Package objectstore provides a client for the platform's S3-compatible
// object store (MinIO). The warehouse phase uses it to create the lakehouse
// buckets once the store is ready.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/anhhoangdev/ldpctl/internal/util/retry"
)

// Client wraps the S3 client for MinIO.
type Client struct {
	s3     *s3.Client
	region string
}

// NewClient creates a new object store client. MinIO serves buckets under the
// endpoint path, so path-style addressing is forced.
func NewClient(ctx context.Context, endpoint, region, accessKey, secretKey string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Client{s3: client, region: region}, nil
}

// EnsureBucket creates a bucket, treating an existing bucket we own as
// success.
func (c *Client) EnsureBucket(ctx context.Context, bucketName string) error {
	_, err := c.s3.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		if isBucketAlreadyOwnedByYou(err) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}
	return nil
}

// EnsureBuckets creates every named bucket, stopping at the first failure.
func (c *Client) EnsureBuckets(ctx context.Context, bucketNames []string) error {
	for _, name := range bucketNames {
		if err := c.EnsureBucket(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// BucketExists checks if a bucket exists and is accessible.
func (c *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}
	return true, nil
}

// VerifyReadWrite puts, reads back and removes a probe object, confirming the
// credentials grant working access to the bucket.
func (c *Client) VerifyReadWrite(ctx context.Context, bucketName string) error {
	const probeKey = ".ldpctl-probe"
	probeData := []byte("ok")

	if err := c.putObject(ctx, bucketName, probeKey, probeData); err != nil {
		return fmt.Errorf("probe write to bucket %s: %w", bucketName, err)
	}

	data, err := c.getObject(ctx, bucketName, probeKey)
	if err != nil {
		return fmt.Errorf("probe read from bucket %s: %w", bucketName, err)
	}
	if !bytes.Equal(data, probeData) {
		return fmt.Errorf("probe object in bucket %s came back altered", bucketName)
	}

	if err := c.deleteObject(ctx, bucketName, probeKey); err != nil {
		return fmt.Errorf("probe cleanup in bucket %s: %w", bucketName, err)
	}
	return nil
}

// EmptyBucket deletes every object in the bucket, page by page.
func (c *Client) EmptyBucket(ctx context.Context, bucketName string) error {
	for {
		result, err := c.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket: aws.String(bucketName),
		})
		if err != nil {
			if isNotFoundError(err) {
				return nil
			}
			return fmt.Errorf("failed to list objects in bucket %s: %w", bucketName, err)
		}
		if len(result.Contents) == 0 {
			return nil
		}

		for _, obj := range result.Contents {
			if obj.Key == nil {
				continue
			}
			if err := c.deleteObject(ctx, bucketName, *obj.Key); err != nil {
				return err
			}
		}
	}
}

// DeleteBucket removes an empty bucket. An absent bucket is not an error.
func (c *Client) DeleteBucket(ctx context.Context, bucketName string) error {
	_, err := c.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to delete bucket %s: %w", bucketName, err)
	}
	return nil
}

// Classify maps an object store error onto a retry class. Credential and
// request shape problems are fatal; throttling and server trouble are
// transient.
func Classify(err error) retry.Class {
	if err == nil {
		return retry.ClassTransient
	}
	if retry.IsFatal(err) {
		return retry.ClassFatal
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "InvalidBucketName":
			return retry.ClassFatal
		case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
			return retry.ClassTransient
		}
	}
	return retry.ClassTransient
}

func (c *Client) putObject(ctx context.Context, bucketName, key string, data []byte) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s in bucket %s: %w", key, bucketName, err)
	}
	return nil
}

func (c *Client) getObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, bucketName, err)
	}
	defer func() { _ = result.Body.Close() }()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Client) deleteObject(ctx context.Context, bucketName, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s from bucket %s: %w", key, bucketName, err)
	}
	return nil
}

// isBucketAlreadyOwnedByYou checks if the error indicates the bucket exists
// and is owned by us.
func isBucketAlreadyOwnedByYou(err error) bool {
	if err == nil {
		return false
	}

	var baoby *types.BucketAlreadyOwnedByYou
	if errors.As(err, &baoby) {
		return true
	}

	var bae *types.BucketAlreadyExists
	if errors.As(err, &bae) {
		return true
	}

	// S3-compatible stores do not always return the exact SDK error types,
	// so fall back to the API error code.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
	}

	return false
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}

	return false
}
