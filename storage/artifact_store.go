package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"churn-orchestrator/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 API the store uses
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ArtifactStore reads pipeline artifacts from object storage
type ArtifactStore struct {
	client S3API
}

// NewArtifactStore creates a new artifact store
func NewArtifactStore(client S3API) *ArtifactStore {
	return &ArtifactStore{client: client}
}

// LoadPredictions reads the prediction artifact at uri and decodes it.
// The artifact is a JSON array of records carrying at least a user_id and
// a will_churn flag.
func (s *ArtifactStore) LoadPredictions(ctx context.Context, uri string) ([]models.PredictionRecord, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	var records []models.PredictionRecord
	if err := json.NewDecoder(out.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode predictions at %s: %w", uri, err)
	}

	return records, nil
}

// parseS3URI splits an s3://bucket/key location descriptor
func parseS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri {
		return "", "", fmt.Errorf("not an s3 URI: %s", uri)
	}

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed s3 URI: %s", uri)
	}
	return parts[0], parts[1], nil
}
