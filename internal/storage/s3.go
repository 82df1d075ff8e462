package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Service fetches seed documents from Amazon S3 (or compatible APIs).
type S3Service struct {
	downloader *manager.Downloader
}

func NewS3Service(client manager.DownloadAPIClient) *S3Service {
	return &S3Service{
		downloader: manager.NewDownloader(client),
	}
}

func (s *S3Service) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	return buf.Bytes(), nil
}

var _ ObjectFetcher = (*S3Service)(nil)
