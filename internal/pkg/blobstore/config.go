package blobstore

import (
	"errors"
	"strings"

	"github.com/morphlyhq/morphly/internal/pkg/env"
)

// Config holds blob storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Folder          string // Key prefix holding transformation uploads
}

// LoadConfig loads blob storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Folder:          env.GetEnv("S3_IMAGE_FOLDER", "transformations"),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}

	return config, nil
}

// KeyPrefix returns the folder as an object key prefix with a trailing slash
func (c *Config) KeyPrefix() string {
	folder := strings.Trim(c.Folder, "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}
