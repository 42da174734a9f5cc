package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	GlobalKeyPrefix = "videoquiz"

	PipelineServiceName  = "pipeline"
	TranscriptObjectType = "transcript"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// TranscriptKey returns the cache key of the transcript for a source URL.
// The URL is hashed so arbitrary query strings never leak into key syntax.
func TranscriptKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(sourceURL)))
	return GenerateCacheKey(PipelineServiceName, TranscriptObjectType, hex.EncodeToString(sum[:]))
}
