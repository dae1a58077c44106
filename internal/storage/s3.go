package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"framenote-backend/internal/config"
)

// PresignedUpload a one-shot upload slot for a source video
type PresignedUpload struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// S3Service presigned upload/download URLs for source videos. The server
// never proxies video bytes; clients PUT directly against the bucket.
type S3Service struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
}

// NewS3Service creates an S3 client from static credentials
func NewS3Service(cfg *config.S3Config) (*S3Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Service{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.BucketName,
		presignExpiry: cfg.PresignExpiry,
	}, nil
}

// GenerateUploadURL presigns a PUT for one project's source video.
// The key embeds a uuid so re-uploads never collide.
func (s *S3Service) GenerateUploadURL(projectID int64, fileName, contentType string) (*PresignedUpload, error) {
	key := fmt.Sprintf("videos/%d/%s%s", projectID, uuid.New().String(), path.Ext(fileName))

	req, err := s.presignClient.PresignPutObject(context.Background(),
		&s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
		},
		s3.WithPresignExpires(s.presignExpiry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().Add(s.presignExpiry),
	}, nil
}

// GenerateDownloadURL presigns a GET for a stored video object
func (s *S3Service) GenerateDownloadURL(key string) (string, error) {
	req, err := s.presignClient.PresignGetObject(context.Background(),
		&s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		},
		s3.WithPresignExpires(s.presignExpiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, nil
}

// ObjectURL public URL for a confirmed object
func (s *S3Service) ObjectURL(region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, region, key)
}

// KeyFromURL recovers the object key from an ObjectURL, empty if the URL
// does not point into this bucket
func (s *S3Service) KeyFromURL(url string) string {
	marker := ".amazonaws.com/"
	idx := strings.Index(url, marker)
	if idx < 0 || !strings.Contains(url, s.bucket) {
		return ""
	}
	return url[idx+len(marker):]
}

// DeleteObject removes a stored video (project delete cascade)
func (s *S3Service) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
