package reel

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fpang/reel-studio/internal/jobs"
	"github.com/fpang/reel-studio/internal/store"
)

// artifactTimeLayout is the timestamp used in artifact file names.
const artifactTimeLayout = "20060102_150405"

// Deps are the collaborators an Orchestrator needs.
type Deps struct {
	Client  GenerationClient
	Fetcher ArtifactFetcher
	Sink    ArtifactSink
	Files   FileAccess
	Writer  ShotWriter
}

// Options tune an Orchestrator. Zero values select defaults.
type Options struct {
	MaxShots     int
	Now          func() time.Time
	NewSessionID func() string
}

// Orchestrator owns every JobRecord. It is safe for concurrent use.
type Orchestrator struct {
	store store.JobStore
	deps  Deps

	maxShots int
	now      func() time.Time
	newID    func() string

	// saveMu serializes SaveAll so writers for different sessions never
	// interleave on the shared table.
	saveMu  sync.Mutex
	mu      sync.RWMutex
	records map[string]store.JobRecord

	polls singleflight.Group
}

// New loads the job table from st and returns an Orchestrator. A Load error
// is logged and the orchestrator starts with an empty table.
func New(ctx context.Context, st store.JobStore, deps Deps, opts Options) *Orchestrator {
	o := &Orchestrator{
		store:    st,
		deps:     deps,
		maxShots: opts.MaxShots,
		now:      opts.Now,
		newID:    opts.NewSessionID,
	}
	if o.maxShots <= 0 || o.maxShots > MaxShots {
		o.maxShots = MaxShots
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	if o.newID == nil {
		o.newID = func() string { return jobs.GenerateSessionID() }
	}

	records, err := st.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load job table, starting empty")
		records = nil
	}
	if records == nil {
		records = make(map[string]store.JobRecord)
	}
	o.records = records

	var open int
	for _, rec := range records {
		if !rec.State.IsTerminal() {
			open++
		}
	}
	log.Info().Int("jobs", len(records)).Int("open", open).Msg("Job orchestrator ready")
	return o
}

// MaxShotCount returns the effective per-job image limit.
func (o *Orchestrator) MaxShotCount() int { return o.maxShots }

// Submit validates the ordered images, submits them to the provider and
// records a started job. It returns the new session ID.
func (o *Orchestrator) Submit(ctx context.Context, images []string, style, category string) (string, error) {
	images = slices.Clone(images)
	style = strings.TrimSpace(style)

	if err := o.validate(images, style); err != nil {
		return "", err
	}

	inputs, err := o.readImages(images)
	if err != nil {
		return "", err
	}

	plans, err := o.deps.Writer.WriteShots(ctx, ShotRequest{Images: inputs, Style: style, Category: category})
	if err != nil {
		return "", newError(ErrSubmission, err, "Could not write shot descriptions")
	}
	shots := buildShots(inputs, plans, o.maxShots)
	if len(shots) == 0 {
		return "", newError(ErrSubmission, nil, "No shots could be built from the selected images")
	}

	sessionID := o.newID()
	logger := log.With().Str("sessionId", sessionID).Str("style", style).Str("category", category).Logger()
	logger.Info().Int("images", len(images)).Int("shots", len(shots)).Msg("Submitting video generation")

	jobID, err := o.deps.Client.Submit(ctx, shots, SubmitConfig{SessionID: sessionID, Style: style, Category: category})
	if err != nil {
		logger.Error().Err(err).Msg("Provider rejected submission")
		return "", newError(ErrSubmission, err, "The video service rejected the request")
	}

	now := o.now()
	rec := store.JobRecord{
		SessionID:      sessionID,
		JobID:          jobID,
		State:          store.StateStarted,
		CreatedAt:      now,
		UpdatedAt:      now,
		Images:         images,
		Style:          style,
		Category:       category,
		Shots:          recordShots(shots),
		ImagesCount:    len(images),
		ShotsCount:     len(shots),
		GenerationType: store.GenerationTypeMultiShot,
	}
	if err := o.commit(ctx, rec); err != nil {
		logger.Error().Err(err).Str("jobId", jobID).Msg("Failed to persist started job")
		return "", newError(ErrStorage, err, "The job was submitted but could not be saved")
	}

	logger.Info().Str("jobId", jobID).Str("state", string(rec.State)).Msg("Video generation started")
	return sessionID, nil
}

func (o *Orchestrator) validate(images []string, style string) error {
	if len(images) == 0 {
		return newError(ErrInvalidSelection, nil, "Select at least one image")
	}
	if len(images) > o.maxShots {
		return newError(ErrInvalidSelection, nil, "Select at most %d images (got %d)", o.maxShots, len(images))
	}
	if style == "" {
		return newError(ErrInvalidSelection, nil, "Choose a style")
	}
	seen := make(map[string]bool, len(images))
	for _, ref := range images {
		if seen[ref] {
			return newError(ErrInvalidSelection, nil, "Image selected twice: %s", ref)
		}
		seen[ref] = true
		if !o.deps.Files.Exists(ref) {
			return newError(ErrInvalidSelection, nil, "Image not found: %s", ref)
		}
	}
	return nil
}

// readImages loads every image concurrently, preserving order.
func (o *Orchestrator) readImages(images []string) ([]ShotImage, error) {
	out := make([]ShotImage, len(images))
	var g errgroup.Group
	g.SetLimit(4)
	for i, ref := range images {
		g.Go(func() error {
			data, err := o.deps.Files.ReadBytes(ref)
			if err != nil {
				return newError(ErrInvalidSelection, err, "Image could not be read: %s", ref)
			}
			out[i] = ShotImage{Ref: ref, Bytes: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// buildShots keeps plans whose image index is valid, in plan order, up to limit.
func buildShots(images []ShotImage, plans []ShotPlan, limit int) []Shot {
	shots := make([]Shot, 0, len(plans))
	for _, p := range plans {
		if p.ImageIndex < 0 || p.ImageIndex >= len(images) {
			continue
		}
		img := images[p.ImageIndex]
		shots = append(shots, Shot{Prompt: p.Text, ImageRef: img.Ref, Image: img.Bytes})
		if len(shots) == limit {
			break
		}
	}
	return shots
}

func recordShots(shots []Shot) []store.Shot {
	out := make([]store.Shot, len(shots))
	for i, s := range shots {
		out[i] = store.Shot{Text: s.Prompt, Image: s.ImageRef}
	}
	return out
}

// Poll reconciles one session with the provider. Concurrent polls of the
// same session share a single provider round trip. The shared call is
// detached from any one caller's context, so a caller that goes away only
// stops its own wait.
//
// A provider response that cannot be interpreted yields a Status with
// State unknown and a nil error; nothing is persisted.
func (o *Orchestrator) Poll(ctx context.Context, sessionID string) (Status, error) {
	detached := context.WithoutCancel(ctx)
	ch := o.polls.DoChan(sessionID, func() (any, error) {
		return o.poll(detached, sessionID)
	})

	select {
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			log.Debug().Str("sessionId", sessionID).Msg("Joined in-flight poll")
		}
		if res.Err != nil {
			return Status{}, res.Err
		}
		return res.Val.(Status), nil
	}
}

func (o *Orchestrator) poll(ctx context.Context, sessionID string) (Status, error) {
	rec, ok := o.lookup(ctx, sessionID)
	if !ok {
		return Status{}, newError(ErrUnknownSession, nil, "No video job with session %s", sessionID)
	}
	if rec.State.IsTerminal() {
		return statusOf(rec), nil
	}

	logger := log.With().Str("sessionId", sessionID).Str("jobId", rec.JobID).Logger()

	ps, err := o.deps.Client.Status(ctx, rec.JobID)
	if err != nil {
		logger.Warn().Err(err).Msg("Provider status check failed")
		return Status{}, newError(ErrProviderUnavailable, err, "Could not reach the video service, poll again later")
	}

	switch ps.State {
	case ProviderInProgress:
		return o.advance(ctx, rec, store.StateInProgress)

	case ProviderCompleted:
		return o.complete(ctx, rec, ps.OutputLocator)

	case ProviderFailed:
		reason := ps.Reason
		if reason == "" {
			reason = "unknown error"
		}
		next := rec.Clone()
		next.State = store.StateFailed
		next.ErrorMessage = reason
		next.UpdatedAt = o.now()
		if err := o.commit(ctx, next); err != nil {
			logger.Error().Err(err).Msg("Failed to persist failed job")
			return Status{}, newError(ErrStorage, err, "The job failed but its state could not be saved")
		}
		logger.Warn().Str("state", string(next.State)).Str("reason", reason).Msg("Video generation failed")
		return statusOf(next), nil

	default:
		logger.Warn().Str("detail", ps.Detail).Msg("Unparseable provider status, leaving record unchanged")
		return unknownStatus(rec, ps.Detail), nil
	}
}

// lookup returns the freshest record for sessionID. Unless the in-memory
// copy is already terminal the store is read too, so sessions submitted or
// advanced by another process sharing the store are picked up. A store read
// error falls back to memory.
func (o *Orchestrator) lookup(ctx context.Context, sessionID string) (store.JobRecord, bool) {
	mem, inMem := o.Get(sessionID)
	if inMem && mem.State.IsTerminal() {
		return mem, true
	}

	stored, ok, err := o.store.Get(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", sessionID).Msg("Failed to read job from store, using cached record")
		return mem, inMem
	}
	if !ok || (inMem && !supersedes(stored, mem)) {
		return mem, inMem
	}

	if !inMem {
		log.Info().Str("sessionId", sessionID).Str("state", string(stored.State)).Msg("Adopted job from store")
	}
	o.mu.Lock()
	o.records[sessionID] = stored.Clone()
	o.mu.Unlock()
	return stored, true
}

// supersedes reports whether the stored record is further along than the
// cached one.
func supersedes(stored, cached store.JobRecord) bool {
	if stored.State != cached.State {
		return cached.State.CanTransition(stored.State)
	}
	return stored.UpdatedAt.After(cached.UpdatedAt)
}

// advance moves rec to state if it is a forward transition and persists it.
// An unchanged state is not rewritten.
func (o *Orchestrator) advance(ctx context.Context, rec store.JobRecord, state store.State) (Status, error) {
	if rec.State == state {
		return statusOf(rec), nil
	}
	if !rec.State.CanTransition(state) {
		return statusOf(rec), nil
	}
	next := rec.Clone()
	next.State = state
	next.UpdatedAt = o.now()
	if err := o.commit(ctx, next); err != nil {
		log.Error().Err(err).Str("sessionId", rec.SessionID).Msg("Failed to persist job state")
		return Status{}, newError(ErrStorage, err, "Job state could not be saved")
	}
	log.Info().Str("sessionId", next.SessionID).Str("jobId", next.JobID).Str("state", string(state)).Msg("Job state advanced")
	return statusOf(next), nil
}

// complete fetches and stores the artifact, then marks rec completed. When
// the artifact cannot be fetched or stored the record stays in progress.
func (o *Orchestrator) complete(ctx context.Context, rec store.JobRecord, locator string) (Status, error) {
	logger := log.With().Str("sessionId", rec.SessionID).Str("jobId", rec.JobID).Str("locator", locator).Logger()

	data, err := o.deps.Fetcher.Fetch(ctx, locator)
	if err != nil {
		o.holdInProgress(ctx, rec)
		logger.Warn().Err(err).Msg("Provider finished but artifact fetch failed")
		msg := "The video finished but could not be downloaded, poll again to retry"
		if errors.Is(err, ErrArtifactNotFound) {
			msg = "The video finished but no video file was found in its output location"
		}
		return Status{}, newError(ErrArtifact, err, "%s", msg)
	}

	now := o.now()
	name := fmt.Sprintf("video_%s_%s.mp4", rec.SessionID, now.Format(artifactTimeLayout))
	path, err := o.deps.Sink.Save(ctx, name, data)
	if err != nil {
		o.holdInProgress(ctx, rec)
		logger.Error().Err(err).Str("artifact", name).Msg("Failed to store artifact")
		return Status{}, newError(ErrArtifact, err, "The video was downloaded but could not be saved")
	}

	next := rec.Clone()
	next.State = store.StateCompleted
	next.ArtifactPath = path
	next.CompletedAt = &now
	next.UpdatedAt = now
	if err := o.commit(ctx, next); err != nil {
		logger.Error().Err(err).Msg("Failed to persist completed job")
		return Status{}, newError(ErrStorage, err, "The video was saved to %s but the job state could not be updated", path)
	}

	logger.Info().Str("state", string(next.State)).Str("artifact", path).Int("bytes", len(data)).Msg("Video generation completed")
	return statusOf(next), nil
}

// holdInProgress records that the provider is past the started state even
// though the artifact is not yet local. Failure to persist is only logged;
// the caller already reports an error.
func (o *Orchestrator) holdInProgress(ctx context.Context, rec store.JobRecord) {
	if rec.State != store.StateStarted {
		return
	}
	next := rec.Clone()
	next.State = store.StateInProgress
	next.UpdatedAt = o.now()
	if err := o.commit(ctx, next); err != nil {
		log.Warn().Err(err).Str("sessionId", rec.SessionID).Msg("Failed to persist in-progress state")
	}
}

// commit persists rec and, only on success, makes it visible in memory.
// Other sessions in the store are left as they are.
func (o *Orchestrator) commit(ctx context.Context, rec store.JobRecord) error {
	o.saveMu.Lock()
	defer o.saveMu.Unlock()

	if err := o.store.SaveAll(ctx, map[string]store.JobRecord{rec.SessionID: rec}); err != nil {
		return err
	}

	o.mu.Lock()
	o.records[rec.SessionID] = rec
	o.mu.Unlock()
	return nil
}

// Get returns a copy of the record for sessionID.
func (o *Orchestrator) Get(sessionID string) (store.JobRecord, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rec, ok := o.records[sessionID]
	if !ok {
		return store.JobRecord{}, false
	}
	return rec.Clone(), true
}

// Jobs returns a copy of every record, oldest first.
func (o *Orchestrator) Jobs() []store.JobRecord {
	o.mu.RLock()
	out := make([]store.JobRecord, 0, len(o.records))
	for _, rec := range o.records {
		out = append(out, rec.Clone())
	}
	o.mu.RUnlock()

	slices.SortFunc(out, func(a, b store.JobRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})
	return out
}
