// Package store uploads finished artifacts to remote object storage.
//
// A run targeting s3:// packages into a local temp file first and then
// commits it here; the packaging stage itself never talks to the network.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/firmwarenator/firmwarenator/iox"
	"github.com/firmwarenator/firmwarenator/types"
)

const s3Scheme = "s3://"

// S3URL is a parsed s3://bucket/key output target.
type S3URL struct {
	Bucket string
	Key    string
}

func (u S3URL) String() string {
	return s3Scheme + u.Bucket + "/" + u.Key
}

// IsS3URL reports whether s names an S3 output target.
func IsS3URL(s string) bool {
	return strings.HasPrefix(s, s3Scheme)
}

// ParseS3URL parses "s3://bucket/key". Both components are required;
// a bare bucket is not a valid artifact destination.
func ParseS3URL(s string) (S3URL, error) {
	rest := strings.TrimPrefix(s, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return S3URL{}, types.UsageErrorf("invalid S3 output %q (want s3://bucket/key)", s)
	}
	return S3URL{Bucket: bucket, Key: key}, nil
}

// S3Target uploads one artifact to S3 using the AWS SDK default
// credential chain (env vars, shared config, IAM role).
type S3Target struct {
	url    S3URL
	client *s3.Client
}

// NewS3Target creates a target for url. Region is optional; empty uses
// the default resolution chain.
func NewS3Target(ctx context.Context, url S3URL, region string) (*S3Target, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Target{
		url:    url,
		client: s3.NewFromConfig(cfg),
	}, nil
}

// Exists reports whether the target object already exists.
// Used by the preflight overwrite check.
func (t *S3Target) Exists(ctx context.Context) (bool, error) {
	_, err := t.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &t.url.Bucket,
		Key:    &t.url.Key,
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", t.url, err)
	}
	return true, nil
}

// Put uploads the local artifact file to the target object.
func (t *S3Target) Put(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return types.NewRunError(types.ErrPackaging, "upload", localPath, err)
	}
	defer iox.DiscardClose(f)

	_, err = t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &t.url.Bucket,
		Key:    &t.url.Key,
		Body:   f,
	})
	if err != nil {
		return types.NewRunError(types.ErrPackaging, "upload", t.url.String(), err)
	}
	return nil
}
