package build

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/solveplot/internal/chart"
	"git.home.luguber.info/inful/solveplot/internal/config"
	"git.home.luguber.info/inful/solveplot/internal/events"
	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/git"
	"git.home.luguber.info/inful/solveplot/internal/history"
	"git.home.luguber.info/inful/solveplot/internal/logfields"
	"git.home.luguber.info/inful/solveplot/internal/metrics"
	"git.home.luguber.info/inful/solveplot/internal/observability"
	"git.home.luguber.info/inful/solveplot/internal/pipeline"
	"git.home.luguber.info/inful/solveplot/internal/report"
	"git.home.luguber.info/inful/solveplot/internal/table"
)

// RendererFactory creates the renderer for a configuration.
type RendererFactory func(cfg *config.Config) (chart.Renderer, error)

// HistoryFactory opens the run history store at path.
type HistoryFactory func(path string) (history.Store, error)

// PublisherFactory connects a run event publisher.
type PublisherFactory func(ctx context.Context, url, subject string) (events.Publisher, error)

// DefaultBuildService is the standard implementation of BuildService.
// It orchestrates: external steps → load → render → bookkeeping.
type DefaultBuildService struct {
	rendererFactory  RendererFactory
	historyFactory   HistoryFactory
	publisherFactory PublisherFactory
	revisionFunc     func(dir string) (git.Revision, error)
	idFunc           func() string
	recorder         metrics.Recorder
	stdout           io.Writer
	stderr           io.Writer
}

// NewBuildService creates a new DefaultBuildService with default factories.
// The interactive renderer must be supplied through WithRendererFactory.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		rendererFactory: DefaultRendererFactory(nil),
		historyFactory: func(path string) (history.Store, error) {
			return history.NewSQLiteStore(path)
		},
		publisherFactory: func(ctx context.Context, url, subject string) (events.Publisher, error) {
			return events.NewNATSPublisher(ctx, url, subject)
		},
		revisionFunc: git.HeadRevision,
		idFunc:       uuid.NewString,
		recorder:     metrics.NoopRecorder{},
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithRendererFactory sets the factory for creating renderers.
func (s *DefaultBuildService) WithRendererFactory(factory RendererFactory) *DefaultBuildService {
	s.rendererFactory = factory
	return s
}

// WithHistoryFactory allows injecting a custom history store (for testing).
func (s *DefaultBuildService) WithHistoryFactory(factory HistoryFactory) *DefaultBuildService {
	s.historyFactory = factory
	return s
}

// WithPublisherFactory allows injecting a custom event publisher (for testing).
func (s *DefaultBuildService) WithPublisherFactory(factory PublisherFactory) *DefaultBuildService {
	s.publisherFactory = factory
	return s
}

// WithRevisionFunc overrides how the source revision of the workdir is read.
func (s *DefaultBuildService) WithRevisionFunc(fn func(dir string) (git.Revision, error)) *DefaultBuildService {
	s.revisionFunc = fn
	return s
}

// WithIDFunc overrides run id generation.
func (s *DefaultBuildService) WithIDFunc(fn func() string) *DefaultBuildService {
	s.idFunc = fn
	return s
}

// WithRecorder sets the metrics recorder. When metrics.textfile is configured
// and the recorder is not a PrometheusRecorder, a per-run registry is used.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithOutput redirects the output of the external steps.
func (s *DefaultBuildService) WithOutput(stdout, stderr io.Writer) *DefaultBuildService {
	s.stdout, s.stderr = stdout, stderr
	return s
}

// Run executes the complete pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	result := &BuildResult{StartTime: time.Now(), Status: BuildStatusFailed}
	finish := func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}

	if req.Config == nil {
		finish()
		s.recorder.IncRunOutcome(string(pipeline.OutcomeFailed))
		return result, ferrors.ConfigError("config required").Build()
	}
	cfg := req.Config

	plan := req.Plan
	if plan == nil {
		plan = pipeline.NewPlanBuilder(cfg).Build()
	}
	result.Artifact = plan.ArtifactPath()

	result.RunID = s.idFunc()
	ctx = observability.WithRunID(ctx, result.RunID)

	renderer := req.Renderer
	if renderer == nil {
		r, err := s.rendererFactory(cfg)
		if err != nil {
			finish()
			s.recorder.IncRunOutcome(string(pipeline.OutcomeFailed))
			return result, err
		}
		renderer = r
	}

	recorder := s.recorder
	var textfile *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		if pr, ok := recorder.(*metrics.PrometheusRecorder); ok {
			textfile = pr
		} else {
			textfile = metrics.NewPrometheusRecorder(nil)
			recorder = textfile
		}
	}

	st := pipeline.NewState(result.RunID, plan)
	if rev, err := s.revisionFunc(plan.Workdir); err == nil {
		st.Report.Revision = rev.Short()
	} else {
		observability.DebugContext(ctx, "Source revision unavailable", logfields.Error(err))
	}

	p := pipeline.NewPipeline()
	if !req.SkipPipeline {
		p.AddAll(pipeline.NewRunner(plan, s.stdout, s.stderr).Stages())
	}
	p.Add(pipeline.StageLoad, stageLoad).
		Add(pipeline.StageRender, stageRender(renderer))

	observability.InfoContext(ctx, "Run started",
		slog.String("mode", string(plan.Mode)),
		logfields.Path(result.Artifact),
		slog.Bool("plot_only", req.SkipPipeline))

	runErr := pipeline.RunStages(ctx, st, p.Build(), pipeline.RecorderObserver{Recorder: recorder})

	result.Report = st.Report
	result.Table = st.Table
	result.Status = statusFor(st.Report.Outcome)
	finish()

	// Bookkeeping must survive a canceled run.
	s.record(context.WithoutCancel(ctx), cfg, result, runErr, textfile)

	if runErr != nil {
		observability.ErrorContext(ctx, "Run failed", slog.String("summary", st.Report.Summary()))
		return result, runErr
	}
	observability.InfoContext(ctx, "Run finished", slog.String("summary", st.Report.Summary()))
	return result, nil
}

func stageLoad(_ context.Context, st *pipeline.State) error {
	tbl, err := table.Load(st.Plan.ArtifactPath())
	if err != nil {
		return err
	}
	st.Table = tbl
	st.Report.Rows = tbl.NumRows()
	st.Report.Columns = append([]string(nil), tbl.Columns...)
	slog.Info("Artifact loaded", logfields.Path(st.Plan.ArtifactPath()),
		logfields.Rows(tbl.NumRows()), logfields.Columns(tbl.Columns))
	return nil
}

func stageRender(r chart.Renderer) pipeline.Stage {
	return func(ctx context.Context, st *pipeline.State) error {
		return r.Render(ctx, st.Table)
	}
}

// record performs the optional side effects of a finished run. Failures are
// logged and never change the run outcome.
func (s *DefaultBuildService) record(ctx context.Context, cfg *config.Config, result *BuildResult, runErr error, textfile *metrics.PrometheusRecorder) {
	if textfile != nil {
		path := cfg.ResolvePath(cfg.Metrics.Textfile)
		if err := textfile.WriteTextfile(path); err != nil {
			observability.WarnContext(ctx, "Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		}
	}

	if cfg.History.Path != "" {
		s.recordHistory(ctx, cfg.ResolvePath(cfg.History.Path), result.Report, runErr)
	}

	if cfg.Events.NATSURL != "" {
		s.publish(ctx, cfg, result, runErr)
	}

	if cfg.Chart.ReportPath != "" {
		in := report.Input{
			Report:   result.Report,
			Table:    result.Table,
			Artifact: result.Artifact,
			Title:    cfg.Chart.Title,
		}
		if cfg.Chart.Renderer == config.RendererHeadless && result.Status.IsSuccess() {
			in.ChartPath = cfg.ExportPath()
		}
		path := cfg.ResolvePath(cfg.Chart.ReportPath)
		if err := report.Write(path, in); err != nil {
			observability.WarnContext(ctx, "Failed to write report", logfields.Path(path), logfields.Error(err))
		}
	}
}

func (s *DefaultBuildService) recordHistory(ctx context.Context, path string, rep *pipeline.Report, runErr error) {
	store, err := s.historyFactory(path)
	if err != nil {
		observability.WarnContext(ctx, "Failed to open run history", logfields.Path(path), logfields.Error(err))
		return
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			observability.WarnContext(ctx, "Failed to close run history", logfields.Error(cerr))
		}
	}()
	if err := store.Record(ctx, history.FromReport(rep, runErr)); err != nil {
		observability.WarnContext(ctx, "Failed to record run", logfields.Path(path), logfields.Error(err))
	}
}

func (s *DefaultBuildService) publish(ctx context.Context, cfg *config.Config, result *BuildResult, runErr error) {
	pub, err := s.publisherFactory(ctx, cfg.Events.NATSURL, cfg.Events.Subject)
	if err != nil {
		observability.WarnContext(ctx, "Failed to connect event publisher", logfields.Error(err))
		return
	}
	defer func() {
		if cerr := pub.Close(); cerr != nil {
			observability.WarnContext(ctx, "Failed to close event publisher", logfields.Error(cerr))
		}
	}()
	if err := pub.Publish(ctx, events.NewRunEvent(result.Report, result.Artifact, runErr)); err != nil {
		observability.WarnContext(ctx, "Failed to publish run event", logfields.Error(err))
	}
}

// ChartOptions derives renderer options from the chart configuration.
func ChartOptions(cfg *config.Config) chart.Options {
	return chart.Options{
		Title:      cfg.Chart.Title,
		WidthIn:    cfg.Chart.WidthIn,
		HeightIn:   cfg.Chart.HeightIn,
		DPI:        cfg.Chart.DPI,
		AutoLayout: cfg.Chart.UseAutoLayout(),
	}
}

// DefaultRendererFactory builds headless and none renderers directly and
// delegates interactive ones to interactive, which may be nil when no display
// toolkit is linked in.
func DefaultRendererFactory(interactive func(title string, opts chart.Options) chart.Renderer) RendererFactory {
	return func(cfg *config.Config) (chart.Renderer, error) {
		opts := ChartOptions(cfg)
		switch cfg.Chart.Renderer {
		case config.RendererHeadless:
			return chart.NewHeadlessRenderer(cfg.ExportPath(), chart.Format(cfg.Chart.Format), opts), nil
		case config.RendererNone:
			return &chart.NoopRenderer{Options: opts}, nil
		case config.RendererInteractive, "":
			if interactive == nil {
				return nil, ferrors.ConfigError("interactive renderer is not available").
					WithContext("renderer", string(config.RendererInteractive)).
					WithContext("hint", "use --renderer headless or --renderer none").
					UserAction().
					Build()
			}
			return interactive(cfg.Chart.Title, opts), nil
		default:
			return nil, ferrors.ValidationError("unknown renderer").
				WithContext("renderer", string(cfg.Chart.Renderer)).
				Build()
		}
	}
}
