//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

package replay

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store is a capture-file backend for sub-providers whose capture buckets
// are exposed S3-compatible, adapted from the teacher's
// internal/flatfiles.S3Client. HTTPStore remains the spec's default path;
// S3Store is a supplement for sub-providers configured to use it.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store constructs an S3Store against an S3-compatible endpoint.
func NewS3Store(accessKey, secretKey, endpoint, bucket string) *S3Store {
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &S3Store{client: client, bucket: bucket}
}

// Resolve downloads the capture object at {provider}/{subprovider}/{date}.bin
// to a local temp file. A missing object maps to ErrSubproviderNotFound.
func (s *S3Store) Resolve(ctx context.Context, providerName, subprovider, date string) (string, error) {
	key := buildCaptureKey(providerName, subprovider, date)

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	result, err := s.client.GetObject(ctx, input)
	if err != nil {
		if isNotFoundErr(err) {
			return "", fmt.Errorf("%w: subprovider=%s date=%s", ErrSubproviderNotFound, subprovider, date)
		}
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	defer result.Body.Close()

	tmp, err := os.CreateTemp("", fmt.Sprintf("realtime-replay-%s-%s-%s-*.bin", providerName, subprovider, date))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, result.Body); err != nil {
		return "", fmt.Errorf("write capture file: %w", err)
	}

	return tmp.Name(), nil
}

func buildCaptureKey(providerName, subprovider, date string) string {
	return fmt.Sprintf("%s/%s/%s.bin", providerName, subprovider, date)
}

func isNotFoundErr(err error) bool {
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}
