package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	appConfig "github.com/ParthDhoot27/stichUP/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// PhotoBucket is a flat object store keyed by string.
type PhotoBucket interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Exists(ctx context.Context, key string) (bool, error)
	SignedURL(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// photoLinkTTL is how long a signed download link for a photo stays valid
const photoLinkTTL = time.Hour

// S3Bucket keeps job photos in a private S3 bucket and hands out signed links
type S3Bucket struct {
	client  *s3.Client
	presign *s3.PresignClient
	name    string
}

// NewS3Bucket builds a bucket client from the AWS settings in cfg. Static keys are
// used when present, otherwise the default AWS credential chain applies.
func NewS3Bucket(ctx context.Context, cfg *appConfig.Config) (*S3Bucket, error) {
	if cfg.AWSS3Bucket == "" {
		return nil, errors.New("no S3 bucket configured")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		static := credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, "")
		opts = append(opts, config.WithCredentialsProvider(static))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Bucket{
		client:  client,
		presign: s3.NewPresignClient(client),
		name:    cfg.AWSS3Bucket,
	}, nil
}

// Put streams body into the bucket under key
func (b *S3Bucket) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.name),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", b.name, key, err)
	}
	log.Debug().Str("bucket", b.name).Str("key", key).Int64("bytes", size).Msg("stored photo")
	return nil
}

func (b *S3Bucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var missing *types.NotFound
	if errors.As(err, &missing) {
		return false, nil
	}
	return false, fmt.Errorf("head s3://%s/%s: %w", b.name, key, err)
}

func (b *S3Bucket) SignedURL(ctx context.Context, key string) (string, error) {
	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(photoLinkTTL))
	if err != nil {
		return "", fmt.Errorf("presign s3://%s/%s: %w", b.name, key, err)
	}
	return req.URL, nil
}

// Remove deletes key. S3 treats deleting a missing key as success.
func (b *S3Bucket) Remove(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", b.name, key, err)
	}
	return nil
}
