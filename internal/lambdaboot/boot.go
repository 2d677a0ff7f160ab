// Package lambdaboot assembles a reel-studio process: AWS clients, the job
// store backend, the provider adapters and the HTTP handler. The CLI and the
// Lambda entrypoint share it so both run the same wiring.
package lambdaboot

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/config"
	"github.com/fpang/reel-studio/internal/store"
)

// AWSClients holds the AWS config and the clients every process needs.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config.
func InitAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}, nil
}

// ParameterAPI is the SSM call used by LoadGeminiKey.
type ParameterAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadGeminiKey fills g.APIKey from SSM Parameter Store when it is not set
// in the environment and a parameter name is configured.
func LoadGeminiKey(ctx context.Context, client ParameterAPI, g *config.Gemini) error {
	if g.APIKey != "" || g.SSMParam == "" {
		return nil
	}
	start := time.Now()
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(g.SSMParam),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("read API key from SSM %s: %w", g.SSMParam, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return fmt.Errorf("SSM parameter %s is empty", g.SSMParam)
	}
	g.APIKey = aws.ToString(out.Parameter.Value)
	log.Debug().Str("param", g.SSMParam).Dur("elapsed", time.Since(start)).Msg("Gemini API key loaded from SSM")
	return nil
}

// NewStore opens the configured job store backend. The returned closer
// releases backend connections and is never nil.
func NewStore(cfg config.Store, awsCfg aws.Config) (store.JobStore, io.Closer, error) {
	switch cfg.Backend {
	case config.StoreDynamoDB:
		if cfg.DynamoTable == "" {
			return nil, nil, fmt.Errorf("DynamoDB store requires a table name")
		}
		return store.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable), nopCloser{}, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return store.NewRedisStore(client, cfg.RedisKey), client, nil
	case config.StoreFile, "":
		return store.NewFileStore(cfg.JobsFile), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
