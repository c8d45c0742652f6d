package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/google/uuid"
)

// S3Store pins through an S3-compatible bucket backed by IPFS (Filebase and
// similar). The provider computes the CID and exposes it as the "cid"
// user-metadata entry of the stored object.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	now      func() time.Time
}

type S3Options struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func NewS3Store(ctx context.Context, o S3Options) (*S3Store, error) {
	if o.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket: %w", utils.ErrNotConfigured)
	}
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(o.Region)}
	if o.AccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   o.Bucket,
		now:      time.Now,
	}, nil
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) PutFile(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	return s.put(ctx, s.key(filename), contentType, data)
}

func (s *S3Store) PutJSON(ctx context.Context, name string, doc []byte) (string, error) {
	return s.put(ctx, s.key(name), "application/json", doc)
}

func (s *S3Store) put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("head %s: %w", key, err)
	}
	cid := head.Metadata["cid"]
	if cid == "" {
		return "", fmt.Errorf("object %s has no cid metadata", key)
	}
	return cid, nil
}

// keys are unique per upload so a re-registration never overwrites an
// earlier object
func (s *S3Store) key(name string) string {
	id := uuid.New()
	safe := strings.ReplaceAll(path.Base(name), " ", "-")
	return s.now().UTC().Format("2006/01/02") + "/" + hex.EncodeToString(id[:8]) + "_" + safe
}
