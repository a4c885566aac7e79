package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/smallbiznis/factorylicense/internal/config"
)

// S3Source lists the objects under "<factoryID>/" in a bucket.
type S3Source struct {
	client s3.ListObjectsV2APIClient
	bucket string
}

func NewS3Source(client s3.ListObjectsV2APIClient, bucket string) *S3Source {
	return &S3Source{client: client, bucket: bucket}
}

// NewS3Client builds a client from the default AWS credential chain. A custom
// endpoint switches to path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3Source) Name() string { return "s3" }

func (s *S3Source) FactoryUsage(ctx context.Context, factoryID string) (int64, int64, error) {
	prefix := strings.TrimSuffix(factoryID, "/") + "/"
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var bytes, count int64
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			if strings.HasSuffix(aws.ToString(obj.Key), "/") {
				continue
			}
			bytes += aws.ToInt64(obj.Size)
			count++
		}
	}
	return bytes, count, nil
}
