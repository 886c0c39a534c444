package blobstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// DeleteObjects accepts at most 1000 keys per call.
const maxDeleteBatch = 1000

// S3Provider implements Provider against an S3-compatible bucket.
type S3Provider struct {
	s3Client *s3.Client
	config   *Config
}

// NewS3Provider creates a blob storage provider from the given configuration
func NewS3Provider(cfg *Config) (*S3Provider, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true // S3-compatible services want path-style URLs
			o.UseAccelerate = false
		}
	})

	provider := &S3Provider{
		s3Client: s3Client,
		config:   cfg,
	}

	log.Infof("[BlobStore] Initialized S3 provider for bucket %s, folder %q", cfg.BucketName, cfg.Folder)
	return provider, nil
}

// Search lists every object in the configured folder uploaded before the
// cutoff. Pagination is followed to the end so the sweeper sees the complete
// listing, not just the first page.
func (p *S3Provider) Search(ctx context.Context, uploadedBefore time.Time) ([]Object, error) {
	prefix := p.config.KeyPrefix()
	var objects []Object

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(p.config.BucketName),
		Prefix: aws.String(prefix),
	}
	paginator := s3.NewListObjectsV2Paginator(p.s3Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in s3://%s/%s: %w", p.config.BucketName, prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			if !obj.LastModified.Before(uploadedBefore) {
				continue
			}
			objects = append(objects, Object{
				PublicID:   p.publicIDFromKey(*obj.Key),
				UploadedAt: *obj.LastModified,
			})
		}
	}

	return objects, nil
}

// BulkDelete removes the named objects from the bucket, batching to the
// provider's per-call limit.
func (p *S3Provider) BulkDelete(ctx context.Context, publicIDs []string) error {
	for start := 0; start < len(publicIDs); start += maxDeleteBatch {
		end := start + maxDeleteBatch
		if end > len(publicIDs) {
			end = len(publicIDs)
		}

		batch := make([]types.ObjectIdentifier, 0, end-start)
		for _, id := range publicIDs[start:end] {
			batch = append(batch, types.ObjectIdentifier{Key: aws.String(p.keyFromPublicID(id))})
		}

		out, err := p.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(p.config.BucketName),
			Delete: &types.Delete{
				Objects: batch,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete %d objects from s3://%s: %w", len(batch), p.config.BucketName, err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("provider rejected %d of %d deletions (first: %s %s)",
				len(out.Errors), len(batch), aws.ToString(first.Key), aws.ToString(first.Message))
		}

		log.Infof("[BlobStore] Deleted %d objects from s3://%s/%s", len(batch), p.config.BucketName, p.config.Folder)
	}
	return nil
}

// publicIDFromKey strips the folder prefix so the identifier matches what the
// Image rows store.
func (p *S3Provider) publicIDFromKey(key string) string {
	return strings.TrimPrefix(key, p.config.KeyPrefix())
}

// keyFromPublicID is the inverse of publicIDFromKey.
func (p *S3Provider) keyFromPublicID(publicID string) string {
	return p.config.KeyPrefix() + publicID
}
