// Package s3util retrieves generated videos from the provider's S3 output
// location and stores finished artifacts in S3.
package s3util

import (
	"fmt"
	"strings"
)

// ParseURI splits s3://bucket/key into bucket and key. The key may be empty.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 URI: %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 URI has no bucket: %q", uri)
	}
	return bucket, key, nil
}

// URI formats bucket and key as s3://bucket/key.
func URI(bucket, key string) string {
	return "s3://" + bucket + "/" + strings.TrimPrefix(key, "/")
}
