// Package main serves the reel-studio HTTP API from AWS Lambda behind API
// Gateway (HTTP API, payload v2).
//
// The job table must live in a shared backend (REEL_STORE=dynamodb or redis)
// and finished videos go to REEL_ARTIFACT_BUCKET, since the Lambda filesystem
// is ephemeral.
package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/config"
	"github.com/fpang/reel-studio/internal/lambdaboot"
	"github.com/fpang/reel-studio/internal/logging"
)

var (
	commitHash = "dev"
	buildTime  = "unknown"
)

func main() {
	initStart := time.Now()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Options{Level: cfg.LogLevel})

	if cfg.Store.Backend == config.StoreFile {
		log.Warn().Str("jobsFile", cfg.Store.JobsFile).Msg("File job store on Lambda is not shared between instances")
	}
	if cfg.ArtifactBucket == "" {
		log.Warn().Msg("REEL_ARTIFACT_BUCKET is not set, videos will be written to the ephemeral filesystem")
	}

	app, err := lambdaboot.Build(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	app.StartupLog("reel-lambda", commitHash+"@"+buildTime, initStart)

	adapter := httpadapter.NewV2(app.Handler())
	lambda.Start(adapter.ProxyWithContext)
}
