package s3util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/reel"
)

// ConventionalName is the file the provider writes inside a job's output prefix.
const ConventionalName = "output.mp4"

// ObjectAPI is the subset of the S3 client used by Fetcher and Sink.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Fetcher implements reel.ArtifactFetcher for s3:// output locators.
type Fetcher struct {
	client    ObjectAPI
	extension string
}

// Compile-time interface check.
var _ reel.ArtifactFetcher = (*Fetcher)(nil)

// NewFetcher returns a Fetcher for .mp4 artifacts.
func NewFetcher(client ObjectAPI) *Fetcher {
	return &Fetcher{client: client, extension: ".mp4"}
}

// Fetch downloads <locator>/output.mp4. If that object does not exist the
// prefix is listed and the lexicographically first key with the artifact
// extension is used. An empty prefix, or one without such a key, yields an
// error wrapping reel.ErrArtifactNotFound.
func (f *Fetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	bucket, prefix, err := ParseURI(locator)
	if err != nil {
		return nil, err
	}
	prefix = strings.TrimSuffix(prefix, "/")

	key := joinKey(prefix, ConventionalName)
	data, err := f.get(ctx, bucket, key)
	if err == nil {
		return data, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Msg("Conventional artifact missing, scanning output prefix")

	key, err = f.scan(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}
	return f.get(ctx, bucket, key)
}

// scan lists every key under prefix and picks the first matching one.
func (f *Fetcher) scan(ctx context.Context, bucket, prefix string) (string, error) {
	listPrefix := prefix
	if listPrefix != "" {
		listPrefix += "/"
	}

	var total int
	var matches []string
	p := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(listPrefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("S3 ListObjectsV2 %s: %w", URI(bucket, listPrefix), err)
		}
		for _, obj := range page.Contents {
			total++
			k := aws.ToString(obj.Key)
			if strings.HasSuffix(strings.ToLower(k), f.extension) {
				matches = append(matches, k)
			}
		}
	}

	if total == 0 {
		return "", fmt.Errorf("%s: output location is empty: %w", URI(bucket, listPrefix), reel.ErrArtifactNotFound)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%s: none of %d objects is a %s file: %w", URI(bucket, listPrefix), total, f.extension, reel.ErrArtifactNotFound)
	}
	slices.Sort(matches)
	if len(matches) > 1 {
		log.Info().Str("bucket", bucket).Strs("candidates", matches).Str("chosen", matches[0]).Msg("Several artifacts found, using the first")
	}
	return matches[0], nil
}

func (f *Fetcher) get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("S3 GetObject %s: %w", URI(bucket, key), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", URI(bucket, key), err)
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Int("bytes", len(data)).Msg("Artifact downloaded")
	return data, nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
