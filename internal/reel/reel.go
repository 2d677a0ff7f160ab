// Package reel orchestrates multi-shot video generation jobs: it validates an
// ordered image selection, asks a ShotWriter for per-image prompts, submits
// the shots to a GenerationClient and reconciles provider status into durable
// JobRecords on every Poll.
package reel

import (
	"context"
	"errors"
)

// MaxShots is the provider's shot-count ceiling.
const MaxShots = 8

// ProviderState is the provider's view of a job, already normalized.
type ProviderState int

const (
	ProviderUnparseable ProviderState = iota
	ProviderInProgress
	ProviderCompleted
	ProviderFailed
)

func (s ProviderState) String() string {
	switch s {
	case ProviderInProgress:
		return "in_progress"
	case ProviderCompleted:
		return "completed"
	case ProviderFailed:
		return "failed"
	default:
		return "unparseable"
	}
}

// ProviderStatus is what GenerationClient.Status reports. OutputLocator is set
// for ProviderCompleted, Reason for ProviderFailed; Detail carries the raw
// provider status for logs.
type ProviderStatus struct {
	State         ProviderState
	OutputLocator string
	Reason        string
	Detail        string
}

// Shot is one entry of a provider request. Order of the slice is shot order.
type Shot struct {
	Prompt   string
	ImageRef string
	Image    []byte
}

// SubmitConfig carries request-level settings for GenerationClient.Submit.
type SubmitConfig struct {
	SessionID string
	Style     string
	Category  string
}

// GenerationClient is the submit/status boundary of the video provider.
type GenerationClient interface {
	Submit(ctx context.Context, shots []Shot, cfg SubmitConfig) (jobID string, err error)
	Status(ctx context.Context, jobID string) (ProviderStatus, error)
}

// ErrArtifactNotFound is returned by an ArtifactFetcher when the output
// namespace is empty or holds no file with the artifact's extension.
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactFetcher retrieves the finished artifact from a provider output locator.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// ArtifactSink stores a finished artifact and returns where it was written.
type ArtifactSink interface {
	Save(ctx context.Context, name string, data []byte) (path string, err error)
}

// FileAccess resolves image references.
type FileAccess interface {
	Exists(ref string) bool
	ReadBytes(ref string) ([]byte, error)
}

// ShotImage is an input image handed to a ShotWriter.
type ShotImage struct {
	Ref   string
	Bytes []byte
}

// ShotRequest asks a ShotWriter for prompts.
type ShotRequest struct {
	Images   []ShotImage
	Style    string
	Category string
}

// ShotPlan is one prompt produced by a ShotWriter. ImageIndex points into
// ShotRequest.Images.
type ShotPlan struct {
	Text       string
	ImageIndex int
}

// ShotWriter turns ordered images into shot prompts.
type ShotWriter interface {
	WriteShots(ctx context.Context, req ShotRequest) ([]ShotPlan, error)
}
