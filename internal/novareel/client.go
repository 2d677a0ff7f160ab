// Package novareel submits multi-shot video jobs to Amazon Nova Reel through
// the Bedrock async invoke API and maps job status into reel.ProviderStatus.
package novareel

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/fpang/reel-studio/internal/metrics"
	"github.com/fpang/reel-studio/internal/reel"
)

// Request constants for MULTI_SHOT_MANUAL generation.
const (
	DefaultModelID = "amazon.nova-reel-v1:1"
	taskType       = "MULTI_SHOT_MANUAL"
	videoFPS       = 24
	videoDimension = "1280x720"
	imageFormat    = "jpeg"
	maxSeed        = 2147483646
)

// API is the subset of the Bedrock runtime client used here.
type API interface {
	StartAsyncInvoke(ctx context.Context, in *bedrockruntime.StartAsyncInvokeInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.StartAsyncInvokeOutput, error)
	GetAsyncInvoke(ctx context.Context, in *bedrockruntime.GetAsyncInvokeInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.GetAsyncInvokeOutput, error)
}

// Config configures a Client.
type Config struct {
	ModelID     string
	OutputS3URI string  // s3://bucket/prefix where the provider writes results
	RPS         float64 // provider calls per second, shared by submit and status
	Seed        func() int64
}

// Client implements reel.GenerationClient.
type Client struct {
	api     API
	cfg     Config
	limiter *rate.Limiter
}

// Compile-time interface check.
var _ reel.GenerationClient = (*Client)(nil)

// New returns a Client. Zero Config fields select defaults.
func New(api API, cfg Config) *Client {
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 2
	}
	if cfg.Seed == nil {
		cfg.Seed = func() int64 { return rand.Int64N(maxSeed + 1) }
	}
	return &Client{
		api:     api,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
	}
}

// Submit starts an async MULTI_SHOT_MANUAL invocation and returns its ARN.
func (c *Client) Submit(ctx context.Context, shots []reel.Shot, sc reel.SubmitConfig) (string, error) {
	if c.cfg.OutputS3URI == "" {
		return "", errors.New("provider output location is not configured (REEL_OUTPUT_S3_URI)")
	}
	if len(shots) == 0 {
		return "", errors.New("no shots to submit")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body := buildRequest(shots, c.cfg.Seed())
	token := uuid.NewSHA1(uuid.NameSpaceURL, []byte("reel-studio/"+sc.SessionID)).String()

	start := time.Now()
	out, err := c.api.StartAsyncInvoke(ctx, &bedrockruntime.StartAsyncInvokeInput{
		ModelId:            aws.String(c.cfg.ModelID),
		ModelInput:         document.NewLazyDocument(body),
		ClientRequestToken: aws.String(token),
		OutputDataConfig: &types.AsyncInvokeOutputDataConfigMemberS3OutputDataConfig{
			Value: types.AsyncInvokeS3OutputDataConfig{S3Uri: aws.String(c.cfg.OutputS3URI + "/")},
		},
	})
	metrics.ProviderCall("StartAsyncInvoke", c.cfg.ModelID, start, err, map[string]any{
		"sessionId": sc.SessionID,
		"shots":     len(shots),
	})
	if err != nil {
		return "", fmt.Errorf("start async invoke: %w", err)
	}
	arn := aws.ToString(out.InvocationArn)
	if arn == "" {
		return "", errors.New("start async invoke: empty invocation ARN")
	}

	log.Info().Str("sessionId", sc.SessionID).Str("jobId", arn).Int("shots", len(shots)).
		Dur("elapsed", time.Since(start)).Msg("Nova Reel job started")
	return arn, nil
}

// Status reads the invocation state. Transport errors are returned as-is.
func (c *Client) Status(ctx context.Context, jobID string) (reel.ProviderStatus, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return reel.ProviderStatus{}, err
	}

	start := time.Now()
	out, err := c.api.GetAsyncInvoke(ctx, &bedrockruntime.GetAsyncInvokeInput{InvocationArn: aws.String(jobID)})
	metrics.ProviderCall("GetAsyncInvoke", c.cfg.ModelID, start, err, map[string]any{"jobId": jobID})
	if err != nil {
		return reel.ProviderStatus{}, fmt.Errorf("get async invoke %s: %w", jobID, err)
	}

	ps := mapStatus(out)
	log.Debug().Str("jobId", jobID).Str("providerStatus", string(out.Status)).Str("state", ps.State.String()).Msg("Nova Reel status")
	return ps, nil
}

// mapStatus translates a GetAsyncInvoke response. A completed job without an
// S3 output location is unparseable, not completed.
func mapStatus(out *bedrockruntime.GetAsyncInvokeOutput) reel.ProviderStatus {
	if out == nil {
		return reel.ProviderStatus{State: reel.ProviderUnparseable}
	}
	switch out.Status {
	case types.AsyncInvokeStatusInProgress:
		return reel.ProviderStatus{State: reel.ProviderInProgress, Detail: string(out.Status)}
	case types.AsyncInvokeStatusFailed:
		reason := strings.TrimSpace(aws.ToString(out.FailureMessage))
		if reason == "" {
			reason = "unknown error"
		}
		return reel.ProviderStatus{State: reel.ProviderFailed, Reason: reason, Detail: string(out.Status)}
	case types.AsyncInvokeStatusCompleted:
		if s3, ok := out.OutputDataConfig.(*types.AsyncInvokeOutputDataConfigMemberS3OutputDataConfig); ok {
			if uri := aws.ToString(s3.Value.S3Uri); uri != "" {
				return reel.ProviderStatus{State: reel.ProviderCompleted, OutputLocator: uri, Detail: string(out.Status)}
			}
		}
		return reel.ProviderStatus{State: reel.ProviderUnparseable, Detail: "Completed without output location"}
	default:
		return reel.ProviderStatus{State: reel.ProviderUnparseable, Detail: string(out.Status)}
	}
}

// buildRequest renders the model input document. Shot order is preserved.
func buildRequest(shots []reel.Shot, seed int64) map[string]any {
	items := make([]map[string]any, 0, len(shots))
	for _, s := range shots {
		items = append(items, map[string]any{
			"text": s.Prompt,
			"image": map[string]any{
				"format": imageFormat,
				"source": map[string]any{
					"bytes": base64.StdEncoding.EncodeToString(s.Image),
				},
			},
		})
	}
	return map[string]any{
		"taskType": taskType,
		"multiShotManualParams": map[string]any{
			"shots": items,
		},
		"videoGenerationConfig": map[string]any{
			"fps":       videoFPS,
			"dimension": videoDimension,
			"seed":      seed,
		},
	}
}
