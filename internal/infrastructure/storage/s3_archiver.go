// Package storage archives revision chains to S3 compatible object storage
// before they are deleted.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	infraconfig "github.com/erp/taxsvc/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectAPI is the subset of the S3 client used by the archiver
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// ChainDocument is the JSON body written for one archived chain
type ChainDocument struct {
	Entity     string    `json:"entity"`
	RootID     int64     `json:"root_id"`
	ArchivedAt time.Time `json:"archived_at"`
	Revisions  any       `json:"revisions"`
}

// S3Archiver writes chain histories as JSON objects
type S3Archiver struct {
	client ObjectAPI
	bucket string
	prefix string
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// S3ArchiverOption is a functional option for configuring S3Archiver
type S3ArchiverOption func(*S3Archiver)

// WithLogger sets a custom logger for S3Archiver
func WithLogger(logger *zap.Logger) S3ArchiverOption {
	return func(a *S3Archiver) {
		a.logger = logger
	}
}

// WithClient replaces the S3 client, mainly for tests
func WithClient(client ObjectAPI) S3ArchiverOption {
	return func(a *S3Archiver) {
		a.client = client
	}
}

// NewS3Archiver creates an archiver from configuration. Static credentials
// are used when given, otherwise the default AWS credential chain.
func NewS3Archiver(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3ArchiverOption) (*S3Archiver, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	a := &S3Archiver{
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.ArchivePrefix, "/"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.client != nil {
		return a, nil
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	a.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return a, nil
}

// EnsureBucket creates the bucket if it does not exist
func (a *S3Archiver) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ObjectKey returns the key an archive of the chain is written under
func (a *S3Archiver) ObjectKey(entity string, rootID int64, id string) string {
	return path.Join(a.prefix, entity, strconv.FormatInt(rootID, 10), id+".json")
}

// Archive writes revisions as one JSON document
func (a *S3Archiver) Archive(ctx context.Context, entity string, rootID int64, revisions any) error {
	body, err := json.Marshal(ChainDocument{
		Entity:     entity,
		RootID:     rootID,
		ArchivedAt: a.now().UTC(),
		Revisions:  revisions,
	})
	if err != nil {
		return fmt.Errorf("encode %s chain %d: %w", entity, rootID, err)
	}

	key := a.ObjectKey(entity, rootID, a.newID())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive %s chain %d: %w", entity, rootID, err)
	}

	a.logger.Info("revision chain archived",
		zap.String("entity", entity),
		zap.Int64("root_id", rootID),
		zap.String("key", key),
	)
	return nil
}
