package blobstore

import (
	"github.com/gofiber/fiber/v2/log"
)

var provider Provider

// SetupBlobStore initializes the shared blob storage provider from the
// environment. Missing configuration leaves the provider unset; callers that
// depend on it must check GetProvider for nil.
func SetupBlobStore() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Warnf("[BlobStore] Not configured, blob operations disabled: %v", err)
		return
	}

	p, err := NewS3Provider(cfg)
	if err != nil {
		log.Errorf("[BlobStore] Initialization failed: %v", err)
		return
	}
	provider = p
}

// GetProvider returns the shared blob storage provider, or nil when disabled.
func GetProvider() Provider {
	return provider
}

// SetProvider overrides the shared provider (used by tests).
func SetProvider(p Provider) {
	provider = p
}
