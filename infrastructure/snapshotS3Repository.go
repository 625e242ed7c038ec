package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/mdblp/analytics-service/schema"
)

// S3Client what the S3 snapshot repository needs from *s3.Client
type S3Client interface {
	manager.UploadAPIClient
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// SnapshotS3Repository stores every snapshot as one JSON object
type SnapshotS3Repository struct {
	client   S3Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

func NewSnapshotS3Repository(client S3Client, bucket string, prefix string) (*SnapshotS3Repository, error) {
	if client == nil {
		return nil, errors.New("s3 client nil")
	}
	if bucket == "" {
		return nil, errors.New("bucket is empty")
	}
	return &SnapshotS3Repository{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}, nil
}

// objectKey <prefix>/<subject>/<computed_at>_<uuid>.json, the uuid keeps two snapshots of the same second apart
func (u *SnapshotS3Repository) objectKey(snapshot *schema.Snapshot) string {
	name := strings.ReplaceAll(snapshot.ComputedAt, " ", "_") + "_" + uuid.New().String() + ".json"
	return path.Join(u.prefix, snapshot.SubjectID, name)
}

// Persist uploads the snapshot
func (u *SnapshotS3Repository) Persist(ctx context.Context, snapshot *schema.Snapshot) error {
	body, err := json.Marshal(newSnapshotDocument(snapshot, timeNow()))
	if err != nil {
		return schema.NewPersistenceError(snapshot.SubjectID, err)
	}
	key := u.objectKey(snapshot)
	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return schema.NewPersistenceError(snapshot.SubjectID, fmt.Errorf("upload failed key=[%s], bucket=[%s]: %w", key, u.bucket, err))
	}
	return nil
}

func (u *SnapshotS3Repository) Ping(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)})
	return err
}
