package objectstore

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"lessonarchiver/internal/contextutil"
)

// s3API is the subset of *s3.Client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Options configures the S3 client.
type S3Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Store implements Store on an S3 bucket.
type S3Store struct {
	client s3API
	bucket string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Store creates an S3 client for opts. Static credentials are used when an access key
// is configured, otherwise the default AWS credential chain applies. A custom endpoint
// (MinIO, Backblaze B2, ...) replaces the AWS one.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Store{client: client, bucket: opts.Bucket}, nil
}

// Upload writes the object, asking S3 to verify the SHA-1 when one is given.
func (s *S3Store) Upload(ctx context.Context, upload Upload) (Object, error) {
	logger := contextutil.LoggerFromContext(ctx)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(upload.Key),
		Body:          upload.Body,
		ContentLength: aws.Int64(upload.Size),
		Metadata:      encodeMetadata(upload.Metadata),
	}
	if upload.ContentType != "" {
		input.ContentType = aws.String(upload.ContentType)
	}
	if len(upload.SHA1) > 0 {
		input.ChecksumSHA1 = aws.String(base64.StdEncoding.EncodeToString(upload.SHA1))
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		logger.ErrorContext(ctx, "failed to upload object", "key", upload.Key, "size", upload.Size, "error", err)
		return Object{}, fmt.Errorf("failed to upload object: %w", err)
	}

	logger.InfoContext(ctx, "uploaded object", "key", upload.Key, "size", upload.Size)
	return Object{
		RemoteID: upload.Key,
		SHA1:     hex.EncodeToString(upload.SHA1),
		Size:     upload.Size,
	}, nil
}

// Info reads the object's headers.
func (s *S3Store) Info(ctx context.Context, remoteID string) (ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remoteID),
	})
	if err != nil {
		return ObjectInfo{}, translate(err, "failed to stat object")
	}

	info := ObjectInfo{
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		Metadata:    decodeMetadata(out.Metadata),
	}
	if info.ContentType == "" {
		info.ContentType = "application/octet-stream"
	}
	return info, nil
}

// Download opens the object's body.
func (s *S3Store) Download(ctx context.Context, remoteID string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remoteID),
	})
	if err != nil {
		return nil, translate(err, "failed to download object")
	}
	return out.Body, nil
}

// Ping checks the bucket exists and is accessible.
func (s *S3Store) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("s3 bucket check failed: %w", err)
	}
	return nil
}

func translate(err error, msg string) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// S3 user metadata travels as HTTP headers, so values are query-escaped to stay ASCII.
func encodeMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = url.QueryEscape(v)
	}
	return out
}

// S3 lowercases user metadata keys on read; known keys get their written casing back.
func decodeMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if decoded, err := url.QueryUnescape(v); err == nil {
			v = decoded
		}
		if strings.EqualFold(k, MetaOriginalName) {
			k = MetaOriginalName
		}
		out[k] = v
	}
	return out
}
