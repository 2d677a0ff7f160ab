package lambdaboot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/catalog"
	"github.com/fpang/reel-studio/internal/config"
	"github.com/fpang/reel-studio/internal/httpapi"
	"github.com/fpang/reel-studio/internal/imageprep"
	"github.com/fpang/reel-studio/internal/logging"
	"github.com/fpang/reel-studio/internal/novareel"
	"github.com/fpang/reel-studio/internal/reel"
	"github.com/fpang/reel-studio/internal/s3util"
	"github.com/fpang/reel-studio/internal/shots"
	"github.com/fpang/reel-studio/internal/workspace"
)

// ArtifactPrefix is the key prefix for videos stored in the artifact bucket.
const ArtifactPrefix = "videos"

// App is a fully wired process.
type App struct {
	Config       config.Config
	Orchestrator *reel.Orchestrator
	Catalog      *catalog.Catalog
	Contexts     *workspace.Registry

	geminiShots bool
	closers     []io.Closer
}

// Build wires an App from cfg. AWS clients are created from the default
// credential chain.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	clients, err := InitAWS(ctx)
	if err != nil {
		return nil, err
	}
	if err := LoadGeminiKey(ctx, clients.SSM, &cfg.Gemini); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	st, closer, err := NewStore(cfg.Store, clients.Config)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closer)

	s3Client := s3.NewFromConfig(clients.Config)
	deps := reel.Deps{
		Client: novareel.New(bedrockruntime.NewFromConfig(clients.Config), novareel.Config{
			ModelID:     cfg.Provider.ModelID,
			OutputS3URI: cfg.Provider.OutputS3URI,
			RPS:         cfg.Provider.RPS,
		}),
		Fetcher: s3util.NewFetcher(s3Client),
		Sink:    reel.DirSink{Dir: cfg.OutputDir},
		Files:   imageprep.Files{Root: cfg.ImagesDir},
		Writer:  shots.TemplateWriter{},
	}
	if cfg.ArtifactBucket != "" {
		deps.Sink = s3util.NewSink(s3Client, cfg.ArtifactBucket, ArtifactPrefix)
	}
	if cfg.Gemini.APIKey != "" {
		gc, err := shots.NewGeminiClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			app.Close()
			return nil, err
		}
		deps.Writer = shots.NewGeminiWriter(gc.Models, cfg.Gemini.Model)
		app.geminiShots = true
	}

	app.Orchestrator = reel.New(ctx, st, deps, reel.Options{MaxShots: cfg.Provider.MaxShots})
	app.Catalog = catalog.New(cfg.ImagesDir, 0)
	app.Contexts = workspace.NewRegistry(app.Catalog, app.Orchestrator.MaxShotCount(), cfg.SelectionTTL)
	return app, nil
}

// Handler returns the HTTP API for the app.
func (a *App) Handler() http.Handler {
	return httpapi.NewRouter(httpapi.NewServer(a.Orchestrator, a.Catalog, a.Contexts))
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// StartupLog emits the startup summary for the named entrypoint.
func (a *App) StartupLog(name, version string, initStart time.Time) {
	cfg := a.Config
	sl := logging.NewStartupLogger(name).
		Version(version).
		LogLevel(cfg.LogLevel).
		InitDuration(time.Since(initStart)).
		Resource("files", "images", cfg.ImagesDir).
		Resource("s3Buckets", "providerOutput", cfg.Provider.OutputS3URI).
		Resource("s3Buckets", "artifacts", cfg.ArtifactBucket).
		Feature("geminiShots", a.geminiShots).
		Feature("s3Sink", cfg.ArtifactBucket != "").
		Config("store", cfg.Store.Backend).
		Config("modelId", cfg.Provider.ModelID).
		Config("maxShots", fmt.Sprint(a.Orchestrator.MaxShotCount()))

	switch cfg.Store.Backend {
	case config.StoreDynamoDB:
		sl.Resource("dynamoTables", "jobs", cfg.Store.DynamoTable)
	case config.StoreRedis:
		sl.Resource("redis", "jobs", cfg.Store.RedisAddr+"/"+cfg.Store.RedisKey)
	default:
		sl.Resource("files", "jobs", cfg.Store.JobsFile)
	}
	if cfg.ArtifactBucket == "" {
		sl.Resource("files", "output", cfg.OutputDir)
	}
	sl.Log()

	if cfg.Provider.OutputS3URI == "" {
		log.Warn().Msg("REEL_OUTPUT_S3_URI is not set, submissions will be rejected")
	}
}
