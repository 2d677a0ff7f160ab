package s3util

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/reel"
)

// Sink implements reel.ArtifactSink by uploading to S3.
type Sink struct {
	client ObjectAPI
	bucket string
	prefix string
}

// Compile-time interface check.
var _ reel.ArtifactSink = (*Sink)(nil)

// NewSink uploads artifacts to bucket under prefix (may be empty).
func NewSink(client ObjectAPI, bucket, prefix string) *Sink {
	return &Sink{client: client, bucket: bucket, prefix: prefix}
}

// Save uploads data and returns its s3:// URI.
func (s *Sink) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(s.prefix, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("video/mp4"),
		Tagging:     ProjectTagging(),
	})
	if err != nil {
		return "", fmt.Errorf("S3 PutObject %s: %w", URI(s.bucket, key), err)
	}
	uri := URI(s.bucket, key)
	log.Info().Str("artifact", uri).Int("bytes", len(data)).Msg("Artifact uploaded")
	return uri, nil
}
