package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client that S3Store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config configures NewS3Client.
type S3Config struct {
	Region string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// NewS3Client builds an S3 client from static settings. Without keys the
// client signs nothing, which suits public buckets and local emulators.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
		Credentials:  aws.AnonymousCredentials{},
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		key, secret := cfg.AccessKeyID, cfg.SecretAccessKey
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: key, SecretAccessKey: secret, Source: "edom"}, nil
		})
	}
	return s3.New(opts)
}

// S3Store stores snapshots as objects under a key prefix. Session id and
// creation time travel as object metadata.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

const (
	metaSessionID = "session-id"
	metaCreatedAt = "created-at"
)

// NewS3Store creates an S3Store. prefix may be empty.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, snap *Snapshot) error {
	prepare(snap)
	if !validID(snap.ID) {
		return writeFailed(snap.ID, errors.New("invalid id"))
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(snap.ID)),
		Body:        bytes.NewReader(snap.HTML),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			metaSessionID: snap.SessionID,
			metaCreatedAt: snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return writeFailed(snap.ID, err)
	}
	return nil
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	if !validID(id) {
		return nil, notFound(id)
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, notFound(id)
		}
		return nil, err
	}
	defer out.Body.Close()

	html, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{ID: id, HTML: html, SessionID: out.Metadata[metaSessionID]}
	if ts, err := time.Parse(time.RFC3339Nano, out.Metadata[metaCreatedAt]); err == nil {
		snap.CreatedAt = ts
	} else if out.LastModified != nil {
		snap.CreatedAt = out.LastModified.UTC()
	}
	return snap, nil
}

// Delete implements Store.
func (s *S3Store) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	return err
}

// Cleanup implements Store using each object's LastModified time.
func (s *S3Store) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	removed := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return removed, err
		}
		for _, obj := range page.Contents {
			if obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
				continue
			}
			id := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(obj.Key), s.prefix), ".html")
			if !validID(id) {
				continue
			}
			if err := s.Delete(ctx, id); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func (s *S3Store) key(id string) string {
	return s.prefix + id + ".html"
}
