// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"

	"github.com/tomtom215/lenscape/internal/config"
	"github.com/tomtom215/lenscape/internal/logging"
)

const providerS3 = "s3"

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores images in an S3-compatible bucket. Objects are written under
// <folder>/<uuid>.<ext> and served from PublicBaseURL.
type S3 struct {
	client        objectAPI
	bucket        string
	publicBaseURL string
}

// NewS3 loads AWS configuration and builds the client. Static credentials are
// used when both keys are set; otherwise the default AWS chain applies.
func NewS3(ctx context.Context, cfg config.S3Config) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
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
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3WithClient(client, cfg.Bucket, cfg.PublicBaseURL), nil
}

func newS3WithClient(client objectAPI, bucket, publicBaseURL string) *S3 {
	return &S3{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Name implements Host.
func (s *S3) Name() string { return providerS3 }

// Upload implements Host. Options.Transformation has no S3 equivalent and is
// ignored; tags are stored as object metadata.
func (s *S3) Upload(ctx context.Context, asset Asset, opts Options) (*Result, error) {
	data, mimeType, err := DecodeDataURI(asset.DataURI)
	if err != nil {
		return nil, &HostError{Provider: providerS3, Status: 400, Message: err.Error()}
	}

	ext := ExtensionFor(mimeType)
	key := fmt.Sprintf("%s/%s.%s", asset.Folder, uuid.NewString(), ext)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mimeType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}
	if len(opts.Tags) > 0 {
		input.Metadata = map[string]string{"tags": strings.Join(opts.Tags, ",")}
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, s3Error("put", err)
	}

	logging.Ctx(ctx).Debug().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(data)).Msg("Stored object")
	return &Result{
		URL:      s.publicBaseURL + "/" + key,
		PublicID: key,
		Bytes:    int64(len(data)),
		Format:   ext,
	}, nil
}

// Delete implements Host. A missing object counts as deleted.
func (s *S3) Delete(ctx context.Context, rawURL string) error {
	key, err := s.KeyFromURL(rawURL)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			return nil
		}
		return s3Error("delete", err)
	}
	return nil
}

// KeyFromURL derives the object key from a public or path-style URL.
func (s *S3) KeyFromURL(rawURL string) (string, error) {
	if s.publicBaseURL != "" && strings.HasPrefix(rawURL, s.publicBaseURL+"/") {
		key := strings.TrimPrefix(rawURL, s.publicBaseURL+"/")
		if i := strings.IndexAny(key, "?#"); i >= 0 {
			key = key[:i]
		}
		if key != "" {
			return url.PathUnescape(key)
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	key := strings.TrimPrefix(u.Path, "/")
	key = strings.TrimPrefix(key, s.bucket+"/")
	if key == "" || !strings.Contains(key, "/") {
		return "", fmt.Errorf("%w: no object key in %q", ErrInvalidURL, rawURL)
	}
	return url.PathUnescape(key)
}

// s3Error converts an SDK error to a *HostError, keeping the HTTP status and
// the service's message when available.
func s3Error(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return upstream(providerS3, op, err)
	}

	hostErr := &HostError{Provider: providerS3, Message: err.Error()}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		hostErr.Message = apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		hostErr.Status = respErr.HTTPStatusCode()
	}
	return hostErr
}
