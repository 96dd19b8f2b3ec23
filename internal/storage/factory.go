package storage

import (
	"strings"

	"github.com/timmy/hearth/internal/config"
)

// NewStorage creates an ObjectStorage instance based on the configuration.
// Parameters:
//   - cfg: artifact storage configuration including endpoint, credentials, and bucket.
// Returns:
//   - ObjectStorage: initialized storage client implementation.
//   - error: non-nil if the storage client cannot be created.
func NewStorage(cfg *config.ArtifactConfig) (ObjectStorage, error) {
	if cfg.Type == "" || cfg.Type == "s3compatible" {
		cfg.Type = detectStorageType(cfg.Endpoint)
	}

	return NewS3Storage(cfg)
}

// detectStorageType attempts to detect the storage type from the endpoint.
func detectStorageType(endpoint string) string {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return "r2"
	case strings.Contains(endpoint, "amazonaws.com"):
		return "s3"
	default:
		return "s3compatible"
	}
}
