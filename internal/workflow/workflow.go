// Package workflow runs the two-stage recipe generation for one session: a text
// stage producing the recipe, then an image stage illustrating its title. It owns
// the session's State and publishes a new snapshot on every transition.
package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/chefdigital/chef/internal/metrics"
	"github.com/chefdigital/chef/internal/sentry"
	"github.com/chefdigital/chef/internal/services/photo"
	"github.com/chefdigital/chef/internal/services/recipe"
	"github.com/chefdigital/chef/internal/telemetry"
	"github.com/chefdigital/chef/internal/validation"
)

// DefaultFailureMessage is shown when the text stage fails.
const DefaultFailureMessage = "Ocorreu um erro ao criar sua receita. Por favor, tente novamente com outro nome ou prato."

// Option configures a Workflow.
type Option func(*Workflow)

// WithFailureMessage replaces the user-facing text failure message.
func WithFailureMessage(msg string) Option {
	return func(w *Workflow) {
		if msg != "" {
			w.failureMessage = msg
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithClock sets the time source for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// WithInitialState seeds the workflow with a previously saved terminal snapshot.
// Non-terminal snapshots are ignored since their run no longer exists.
func WithInitialState(s State) Option {
	return func(w *Workflow) {
		if s.Terminal() {
			w.state = s
			w.seq = s.Request
		}
	}
}

// Workflow is the single writer of a session's State.
type Workflow struct {
	content        recipe.ContentProvider
	images         photo.ImageProvider
	failureMessage string
	logger         *slog.Logger
	now            func() time.Time

	// publishMu orders commits and their notifications; mu guards the fields below.
	publishMu   sync.Mutex
	mu          sync.RWMutex
	state       State
	seq         uint64
	subscribers []func(State)
}

// New creates a Workflow in the Idle/Idle state.
func New(content recipe.ContentProvider, images photo.ImageProvider, opts ...Option) *Workflow {
	w := &Workflow{
		content:        content,
		images:         images,
		failureMessage: DefaultFailureMessage,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the latest snapshot.
func (w *Workflow) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Subscribe registers fn to receive every published snapshot, in order. fn runs
// synchronously on the publishing goroutine and must not call Begin or Generate.
func (w *Workflow) Subscribe(fn func(State)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribers = append(w.subscribers, fn)
}

// Run is one generation request. It is created by Begin and driven by Execute.
type Run struct {
	w       *Workflow
	query   string
	request uint64
}

// Request is the sequence number of the run within its workflow.
func (r *Run) Request() uint64 { return r.request }

func (r *Run) Query() string { return r.query }

// Begin validates query and, if it is usable, resets the state to Loading/Loading
// with no recipe, image or error. A blank query returns an InvalidInputError and
// leaves the state untouched. Any earlier run still in flight is superseded.
func (w *Workflow) Begin(query string) (*Run, error) {
	q, err := validation.ValidateQuery(query)
	if err != nil {
		return nil, err
	}

	w.publishMu.Lock()
	defer w.publishMu.Unlock()

	w.mu.Lock()
	w.seq++
	run := &Run{w: w, query: q, request: w.seq}
	next := loading(q, run.request, w.now())
	w.state = next
	subs := w.subscribers
	w.mu.Unlock()

	notify(subs, next)
	metrics.RecordRequest(context.Background())
	return run, nil
}

// Generate begins a request for query and runs it to completion.
func (w *Workflow) Generate(ctx context.Context, query string) (State, error) {
	run, err := w.Begin(query)
	if err != nil {
		return State{}, err
	}
	return run.Execute(ctx), nil
}

// commit publishes next if run is still the latest request. A superseded run's
// transitions are dropped.
func (w *Workflow) commit(run *Run, next State) bool {
	w.publishMu.Lock()
	defer w.publishMu.Unlock()

	w.mu.Lock()
	if w.seq != run.request {
		w.mu.Unlock()
		return false
	}
	w.state = next
	subs := w.subscribers
	w.mu.Unlock()

	notify(subs, next)
	return true
}

func notify(subs []func(State), s State) {
	for _, fn := range subs {
		fn(s)
	}
}

// Execute runs the text stage and, if it succeeds, the image stage. It returns the
// run's final snapshot. A run superseded by a newer Begin stops publishing, and
// skips the image call if it has not started yet.
func (r *Run) Execute(ctx context.Context) State {
	w := r.w
	ctx, span := telemetry.Tracer("workflow").Start(ctx, "workflow.generate")
	defer span.End()
	span.SetAttributes(attribute.Int64("workflow.request", int64(r.request)))

	log := w.logger.With("request", r.request)
	current := loading(r.query, r.request, w.now())

	startTime := time.Now()
	rec, err := w.content.FetchRecipe(ctx, r.query)
	if err == nil && rec == nil {
		err = errNoRecipe
	}
	if err != nil {
		metrics.RecordStage(ctx, "text", "failure", time.Since(startTime).Seconds())
		log.ErrorContext(ctx, "Recipe generation failed", "query", r.query, "error", err)
		span.RecordError(err)
		current = current.withTextFailure(w.failureMessage, w.now())
		w.commit(r, current)
		return current
	}
	metrics.RecordStage(ctx, "text", "success", time.Since(startTime).Seconds())
	log.InfoContext(ctx, "Recipe generated", "title", rec.Title)

	current = current.withRecipe(rec, w.now())
	if !w.commit(r, current) {
		log.InfoContext(ctx, "Request superseded, skipping image stage")
		span.SetAttributes(attribute.Bool("workflow.superseded", true))
		return current
	}

	result := r.illustrate(ctx, rec.Title)
	current = current.withImage(result, w.now())
	if !w.commit(r, current) {
		span.SetAttributes(attribute.Bool("workflow.superseded", true))
	}
	return current
}

// illustrate runs the image stage. Failures are reported and folded into the result.
func (r *Run) illustrate(ctx context.Context, title string) ImageResult {
	w := r.w
	startTime := time.Now()
	img, err := w.images.FetchImage(ctx, title)
	if err == nil && img.IsZero() {
		err = errEmptyImage
	}
	if err != nil {
		metrics.RecordStage(ctx, "image", "failure", time.Since(startTime).Seconds())
		w.logger.WarnContext(ctx, "Image generation failed, keeping recipe", "request", r.request, "title", title, "error", err)
		sentry.CaptureError(ctx, err, map[string]string{"stage": "image"})
		return ImageResult{Err: err}
	}
	metrics.RecordStage(ctx, "image", "success", time.Since(startTime).Seconds())
	return ImageResult{Image: img}
}
