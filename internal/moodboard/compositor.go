package moodboard

import (
	"context"
	"time"

	"moodboard/internal/domain"
	"moodboard/internal/infra"
	"moodboard/internal/providers/image"
)

// State is a step of one moodboard request. FAILED is absorbing.
type State string

const (
	StateReceived  State = "RECEIVED"
	StateResolved  State = "RESOLVED"
	StatePrompted  State = "PROMPTED"
	StateGenerated State = "GENERATED"
	StatePublished State = "PUBLISHED"
	StateDone      State = "DONE"
	StateFailed    State = "FAILED"
)

const (
	MsgNoProducts = "No products provided."
	MsgNoImages   = "No valid images found for provided product IDs."
)

// ImageResolver resolves product IDs to catalog images.
type ImageResolver interface {
	Resolve(ctx context.Context, ids []string) ([]domain.ResolvedImage, error)
}

// ArtifactPublisher persists a generated image.
type ArtifactPublisher interface {
	Publish(ctx context.Context, payload image.Payload) (domain.Artifact, error)
}

// Result is a completed moodboard. It is only returned on success.
type Result struct {
	ImageURL string
	Artifact domain.Artifact
	States   []State
}

type CompositorOptions struct {
	Size    string
	Quality string
	Logger  *infra.Logger
	Metrics *infra.Metrics
}

// Compositor runs resolve, prompt, generate and publish for one request.
type Compositor struct {
	resolver  ImageResolver
	generator image.Generator
	publisher ArtifactPublisher
	size      string
	quality   string
	logger    *infra.Logger
	metrics   *infra.Metrics
}

func NewCompositor(resolver ImageResolver, generator image.Generator, publisher ArtifactPublisher, opts CompositorOptions) *Compositor {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Compositor{
		resolver:  resolver,
		generator: generator,
		publisher: publisher,
		size:      opts.Size,
		quality:   opts.Quality,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

type run struct {
	c      *Compositor
	req    domain.MoodboardRequest
	states []State
}

func (r *run) enter(s State) {
	r.states = append(r.states, s)
	r.c.logger.Debug().Str("request_id", r.req.RequestID).Str("state", string(s)).Msg("moodboard state")
}

func (r *run) fail(err error) (Result, error) {
	r.states = append(r.states, StateFailed)
	r.c.logger.Warn().
		Err(err).
		Str("request_id", r.req.RequestID).
		Str("state", string(StateFailed)).
		Str("kind", string(domain.KindOf(err))).
		Msg("moodboard failed")
	outcome := string(domain.KindOf(err))
	if outcome == "" {
		outcome = "unknown"
	}
	r.c.metrics.ObserveMoodboard(outcome)
	return Result{}, err
}

// Compose returns a complete artifact URL or an error, never both.
func (c *Compositor) Compose(ctx context.Context, req domain.MoodboardRequest) (Result, error) {
	r := &run{c: c, req: req}
	r.enter(StateReceived)

	ids := req.UniqueIDs()
	if len(ids) == 0 {
		return r.fail(domain.NewValidationError(MsgNoProducts))
	}
	resolved, err := c.resolver.Resolve(ctx, ids)
	if err != nil {
		return r.fail(err)
	}
	if len(resolved) == 0 {
		return r.fail(domain.NewResolutionEmptyError(MsgNoImages))
	}
	r.enter(StateResolved)

	urls := make([]string, 0, len(resolved))
	refs := make([]image.ReferenceImage, 0, len(resolved))
	for _, img := range resolved {
		urls = append(urls, img.URL)
		refs = append(refs, image.ReferenceImage{URL: img.URL})
	}
	prompt := image.BuildMoodboardPrompt(urls)
	r.enter(StatePrompted)

	start := time.Now()
	payload, err := c.generator.Generate(ctx, image.GenerateRequest{
		Prompt:     prompt,
		Size:       c.size,
		Quality:    c.quality,
		Count:      1,
		RequestID:  req.RequestID,
		References: refs,
	})
	c.metrics.ObserveGeneration(time.Since(start).Seconds())
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewProviderError("image generation failed", err)
		}
		return r.fail(err)
	}
	r.enter(StateGenerated)

	artifact, err := c.publisher.Publish(ctx, payload)
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewStorageError("publish moodboard", err)
		}
		return r.fail(err)
	}
	r.enter(StatePublished)

	r.enter(StateDone)
	c.metrics.ObserveMoodboard("done")
	c.logger.Info().
		Str("request_id", req.RequestID).
		Int("products", len(ids)).
		Int("resolved", len(resolved)).
		Str("shape", string(payload.Shape)).
		Str("artifact", artifact.Name).
		Msg("moodboard published")
	return Result{ImageURL: artifact.URL, Artifact: artifact, States: r.states}, nil
}
