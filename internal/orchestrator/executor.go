package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

const instrumentationName = "github.com/fyrsmithlabs/airo/internal/orchestrator"

// Deps are the collaborators of an Executor. Architect and Coder are
// required; the rest may be nil.
type Deps struct {
	Architect     Architect
	Coder         Coder
	Reviewer      Reviewer
	TestGenerator TestGenerator
	Sink          Sink
	Memory        Recorder
	Publisher     Publisher
	Logger        *logging.Logger
	Tracer        trace.Tracer
	Meter         metric.Meter
}

// Executor runs project requests through the pipeline steps.
type Executor struct {
	cfg  config.PipelineConfig
	deps Deps

	logger     *logging.Logger
	tracer     trace.Tracer
	components metric.Int64Counter
	projects   metric.Int64Counter

	mu               sync.Mutex
	progressCallback ProgressCallback
}

// NewExecutor creates an Executor.
func NewExecutor(cfg config.PipelineConfig, deps Deps) *Executor {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	meter := deps.Meter
	if meter == nil {
		meter = noop.Meter{}
	}
	components, err := meter.Int64Counter("airo.components",
		metric.WithDescription("Components processed, by final state"))
	if err != nil {
		components, _ = noop.Meter{}.Int64Counter("airo.components")
	}
	projects, err := meter.Int64Counter("airo.projects",
		metric.WithDescription("Pipeline runs, by outcome"))
	if err != nil {
		projects, _ = noop.Meter{}.Int64Counter("airo.projects")
	}
	return &Executor{
		cfg:        cfg,
		deps:       deps,
		logger:     logger.Named("orchestrator"),
		tracer:     tracer,
		components: components,
		projects:   projects,
	}
}

// OnProgress sets the progress callback.
func (e *Executor) OnProgress(callback ProgressCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progressCallback = callback
}

// run carries the state of one CreateProject call.
type run struct {
	ctx context.Context
	res *project.Result
}

// CreateProject runs the pipeline. A project ID already on ctx (see
// logging.WithProjectID) is used as the result ID; otherwise one is
// generated.
func (e *Executor) CreateProject(ctx context.Context, req project.Request) (*project.Result, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := logging.ProjectIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = logging.WithProjectID(ctx, id)
	}
	ctx, span := e.tracer.Start(ctx, "orchestrator.create_project", trace.WithAttributes(
		attribute.String("project.id", id),
		attribute.String("project.language", string(req.Language)),
	))
	defer span.End()

	r := &run{ctx: ctx, res: &project.Result{
		ID:        id,
		Request:   req,
		Artifacts: []project.Artifact{},
		StartedAt: time.Now(),
	}}
	e.logger.Info(ctx, "project started", zap.String("name", req.Name), zap.String("language", string(req.Language)))

	steps := []struct {
		step    project.Step
		enabled bool
		fn      func(*run) error
	}{
		{project.StepArchitect, true, e.architect},
		{project.StepComponents, true, e.generateComponents},
		{project.StepReview, req.GenerateReview, e.review},
		{project.StepTests, req.GenerateTests, e.tests},
		{project.StepAggregate, true, e.aggregate},
		{project.StepPersist, true, e.persist},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return e.cancelled(r, s.step, err)
		}
		if !s.enabled {
			e.report(r, project.StepProgress{Step: s.step, Status: project.StatusSkipped,
				Message: fmt.Sprintf("Skipped step: %s", s.step), Percentage: percentage(s.step, 1, 1)})
			continue
		}
		e.report(r, project.StepProgress{Step: s.step, Status: project.StatusInProgress,
			Message: fmt.Sprintf("Starting step: %s", s.step), Percentage: percentage(s.step, 0, 1)})

		stepCtx, stepSpan := e.tracer.Start(ctx, "orchestrator."+string(s.step))
		r.ctx = stepCtx
		err := s.fn(r)
		stepSpan.End()
		r.ctx = ctx
		if err != nil {
			return e.cancelled(r, s.step, err)
		}

		if r.res.Fatal {
			e.report(r, project.StepProgress{Step: s.step, Status: project.StatusFailed,
				Message: fmt.Sprintf("Failed step: %s", s.step), Percentage: 100, Final: true})
			e.finish(r, "fatal")
			return r.res, nil
		}
		final := s.step == project.StepPersist
		pct := percentage(s.step, 1, 1)
		e.report(r, project.StepProgress{Step: s.step, Status: project.StatusCompleted,
			Message: fmt.Sprintf("Completed step: %s", s.step), Percentage: pct, Final: final})
	}

	outcome := "success"
	if !r.res.Success {
		outcome = "partial"
	}
	e.finish(r, outcome)
	return r.res, nil
}

func (e *Executor) cancelled(r *run, step project.Step, err error) (*project.Result, error) {
	e.report(r, project.StepProgress{Step: step, Status: project.StatusFailed,
		Message: "Cancelled", Percentage: percentage(step, 0, 1), Final: true})
	e.finish(r, "cancelled")
	return r.res, err
}

func (e *Executor) finish(r *run, outcome string) {
	if r.res.CompletedAt.IsZero() {
		r.res.CompletedAt = time.Now()
	}
	e.projects.Add(r.ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	e.logger.Info(r.ctx, "project finished",
		zap.String("outcome", outcome),
		zap.Int("components", len(r.res.Artifacts)),
		zap.Strings("needs_attention", r.res.NeedsAttention()),
		zap.Duration("duration", r.res.Duration()),
	)
}

func (e *Executor) architect(r *run) error {
	doc, err := e.deps.Architect.DesignArchitecture(r.ctx, r.res.Request)
	if err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.res.AddFailure(project.Failure{
			Step:    string(project.StepArchitect),
			Kind:    project.FailureArchitecture,
			Message: err.Error(),
		})
		return nil
	}
	r.res.Architecture = &doc
	return nil
}

func (e *Executor) generateComponents(r *run) error {
	arch := r.res.Architecture
	comps := arch.Components
	arts := make([]project.Artifact, len(comps))

	var (
		mu   sync.Mutex
		done int
	)
	runOne := func(ctx context.Context, i int) error {
		art, _, err := e.deps.Coder.GenerateWithValidation(ctx, comps[i], arch, r.res.Request.Language)
		if err != nil {
			return err
		}
		arts[i] = art
		e.components.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(art.State))))
		if art.Accepted() && e.deps.Memory != nil {
			if err := e.deps.Memory.Remember(ctx, r.res.ID, art); err != nil {
				e.logger.Warn(ctx, "remembering component failed", zap.String("component", art.Component), zap.Error(err))
			}
		}

		mu.Lock()
		done++
		n := done
		mu.Unlock()
		e.report(r, project.StepProgress{
			Step:       project.StepComponents,
			Status:     project.StatusInProgress,
			Component:  art.Component,
			Message:    fmt.Sprintf("Component %s %s after %d iteration(s)", art.Component, art.State, art.Iterations),
			Percentage: percentage(project.StepComponents, n, len(comps)),
		})
		return nil
	}

	for _, batch := range Schedule(comps, e.cfg.Parallelism, e.cfg.DependencyOrder) {
		if len(batch) == 1 {
			if err := runOne(r.ctx, batch[0]); err != nil {
				return err
			}
			continue
		}
		g, gctx := errgroup.WithContext(r.ctx)
		g.SetLimit(e.cfg.Parallelism)
		for _, i := range batch {
			g.Go(func() error { return runOne(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	DedupeFilenames(arts)
	r.res.Artifacts = arts
	for _, art := range arts {
		if !art.Accepted() {
			r.res.AddFailure(project.Failure{
				Step:      string(project.StepComponents),
				Component: art.Component,
				Kind:      project.FailureExhausted,
				Message:   fmt.Sprintf("not accepted after %d iteration(s)", art.Iterations),
			})
		}
	}
	return nil
}

func (e *Executor) review(r *run) error {
	if e.deps.Reviewer == nil {
		return nil
	}
	for _, art := range r.res.Artifacts {
		if art.Source == "" {
			continue
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		rev := e.deps.Reviewer.Review(r.ctx, art)
		r.res.Reviews = append(r.res.Reviews, rev)
		if rev.Failed {
			r.res.AddFailure(project.Failure{
				Step:      string(project.StepReview),
				Component: art.Component,
				Kind:      project.FailureReview,
				Message:   rev.FailureReason,
			})
		}
	}
	return nil
}

func (e *Executor) tests(r *run) error {
	if e.deps.TestGenerator == nil {
		return nil
	}
	for _, art := range r.res.Artifacts {
		if art.Source == "" {
			continue
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		ta := e.deps.TestGenerator.GenerateTests(r.ctx, art)
		r.res.Tests = append(r.res.Tests, ta)
		if ta.Failed {
			r.res.AddFailure(project.Failure{
				Step:      string(project.StepTests),
				Component: art.Component,
				Kind:      project.FailureTestGeneration,
				Message:   ta.FailureReason,
			})
		}
	}
	return nil
}

func (e *Executor) aggregate(r *run) error {
	success := !r.res.Fatal && len(r.res.Artifacts) > 0
	for _, art := range r.res.Artifacts {
		if !art.Accepted() {
			success = false
		}
	}
	r.res.Success = success
	r.res.CompletedAt = time.Now()
	return nil
}

func (e *Executor) persist(r *run) error {
	if e.deps.Sink == nil {
		return nil
	}
	dir, err := e.deps.Sink.Write(r.ctx, r.res)
	if err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.logger.Error(r.ctx, "persisting project failed", zap.Error(err))
		r.res.AddFailure(project.Failure{
			Step:    string(project.StepPersist),
			Kind:    project.FailurePersistence,
			Message: err.Error(),
		})
		return nil
	}
	r.res.OutputDir = dir
	return nil
}

// report delivers progress to the callback and publisher.
func (e *Executor) report(r *run, p project.StepProgress) {
	p.ProjectID = r.res.ID

	e.mu.Lock()
	cb := e.progressCallback
	if cb != nil {
		cb(p)
	}
	e.mu.Unlock()

	if e.deps.Publisher != nil {
		if err := e.deps.Publisher.Publish(r.ctx, r.res.ID, p); err != nil {
			e.logger.Debug(r.ctx, "publishing progress failed", zap.Error(err))
		}
	}
}
