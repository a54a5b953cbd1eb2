package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/delta"
	"git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/events"
	"git.home.luguber.info/inful/sitegen/internal/graph"
	"git.home.luguber.info/inful/sitegen/internal/linkcheck"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/page"
	"git.home.luguber.info/inful/sitegen/internal/render"
	"git.home.luguber.info/inful/sitegen/internal/state"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// GraphFileName is the Graphviz export written when output.graph is set.
const GraphFileName = "dependency-graph.dot"

// StylesFileName is the syntax stylesheet written when output.styles is set.
const StylesFileName = "syntax.css"

// Outcome summarizes one completed generation.
type Outcome struct {
	GenerationID string
	Diff         delta.Diff
	Rendered     int
	Written      int
	Deleted      int
	Duration     time.Duration
	// BrokenLinks holds advisory link-scan findings when enabled.
	BrokenLinks []linkcheck.Broken
}

// Runner executes generations against one site. It keeps the previous
// generation's graph as the diffing baseline; the baseline advances only
// when a generation succeeds end to end.
type Runner struct {
	Config    *config.Config
	Scheduler *render.Scheduler
	Recorder  metrics.Recorder
	Publisher events.Publisher
	Ledger    state.Ledger
	Logger    *slog.Logger

	mu       sync.Mutex
	baseline *graph.Graph
	resetSeq uint64
}

// Reset drops the baseline so the next Run renders everything. Safe to call
// while a generation is in flight: a reset observed mid-build wins over that
// build's baseline adoption.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseline = nil
	r.resetSeq++
}

// Run executes one generation. On any error the output directory keeps its
// previous contents where possible and the baseline is left untouched, so
// the next run re-attempts the same delta.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := r.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	start := time.Now()
	out := &Outcome{GenerationID: uuid.NewString()}
	logger = logger.With("generation", out.GenerationID)

	result, err := r.generate(ctx, out, recorder, logger)
	out.Duration = time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	recorder.ObserveGenerationDuration(out.Duration)
	recorder.IncGenerationOutcome(outcome)
	r.record(ctx, out, err, logger)

	if err != nil {
		return nil, err
	}

	if r.Config.LinkCheck {
		pages := make(map[string]string, len(result.Outputs))
		for _, o := range result.Outputs {
			pages[o.URL] = o.Content
		}
		broken, scanErr := linkcheck.Check(pages)
		if scanErr != nil {
			logger.Warn("link scan failed", "error", scanErr)
		}
		for _, b := range broken {
			logger.Warn("broken internal link", "source", b.SourceURL, "target", b.Link.URL, "tag", b.Link.Tag)
		}
		out.BrokenLinks = broken
	}

	logger.Info("generation complete",
		"rendered", out.Rendered,
		"written", out.Written,
		"deleted", out.Deleted,
		"duration", out.Duration)
	return out, nil
}

func (r *Runner) generate(ctx context.Context, out *Outcome, recorder metrics.Recorder, logger *slog.Logger) (*render.Result, error) {
	stageStart := time.Now()
	loader := &Loader{
		Root:    r.Config.Root,
		Exclude: []string{r.Config.Output.Directory, r.Config.Snippets},
		Logger:  logger,
	}
	content, err := loader.Load()
	if err != nil {
		recorder.IncStageResult("load", metrics.ResultFatal)
		return nil, err
	}
	recorder.ObserveStageDuration("load", time.Since(stageStart))
	recorder.IncStageResult("load", metrics.ResultSuccess)

	stageStart = time.Now()
	next, err := graph.Build(content.Pages, content.Layouts)
	if err != nil {
		recorder.IncStageResult("graph", metrics.ResultFatal)
		return nil, err
	}
	recorder.ObserveStageDuration("graph", time.Since(stageStart))
	recorder.IncStageResult("graph", metrics.ResultSuccess)
	recorder.SetGraphSize(next.Len(), next.EdgeCount())

	r.mu.Lock()
	baseline := r.baseline
	seq := r.resetSeq
	r.mu.Unlock()

	stageStart = time.Now()
	need := allLabels(next)
	var deletions map[string]string
	if baseline != nil {
		out.Diff = delta.Classify(baseline, next)
		need = delta.Closure(baseline, next, out.Diff)
		delta.Merge(baseline, next, need)
		deletions = delta.Deletions(baseline, out.Diff)
	} else {
		deletions = r.orphanedOutputs(ctx, content.Pages, logger)
	}
	recorder.ObserveStageDuration("diff", time.Since(stageStart))

	logger.Debug("delta computed",
		"nodes", next.Len(),
		"render_needed", need.Len(),
		"deletions", len(deletions))

	stageStart = time.Now()
	result, err := r.Scheduler.Render(next, need)
	if err != nil {
		recorder.IncStageResult("render", metrics.ResultFatal)
		return nil, err
	}
	recorder.ObserveStageDuration("render", time.Since(stageStart))
	recorder.IncStageResult("render", metrics.ResultSuccess)
	out.Rendered = len(result.Rendered)
	recorder.AddPagesRendered(out.Rendered)

	stageStart = time.Now()
	written, deleted, err := r.writeOutputs(next, result, deletions, logger)
	out.Written = len(written)
	out.Deleted = len(deleted)
	if err != nil {
		recorder.IncStageResult("write", metrics.ResultFatal)
		return nil, err
	}
	recorder.ObserveStageDuration("write", time.Since(stageStart))
	recorder.IncStageResult("write", metrics.ResultSuccess)
	recorder.AddOutputsWritten(out.Written)

	if err := r.ledgerOutputs(ctx, result, deleted); err != nil {
		logger.Warn("ledger update failed", "error", err)
	}

	// Adopt the new graph as baseline only after everything else succeeded,
	// unless a Reset raced the build: the reset then stands and the next run
	// renders everything.
	r.mu.Lock()
	if r.resetSeq == seq {
		r.baseline = next
	}
	r.mu.Unlock()
	return result, nil
}

// orphanedOutputs finds ledger rows for pages no longer present on disk. A
// fresh process has no baseline graph to diff against, so files written for
// pages removed while it was down are only reachable through the ledger.
func (r *Runner) orphanedOutputs(ctx context.Context, pages map[string]*page.Page, logger *slog.Logger) map[string]string {
	if r.Ledger == nil {
		return nil
	}
	known, err := r.Ledger.KnownOutputs(ctx)
	if err != nil {
		logger.Warn("could not load known outputs", "error", err)
		return nil
	}
	orphans := map[string]string{}
	for path, url := range known {
		if _, ok := pages[path]; !ok {
			orphans[path] = url
		}
	}
	return orphans
}

// writeOutputs writes every rendered output, then removes files owned by
// deleted pages. Deletions are sequenced after writes so a failed write
// never leaves the site both stale and shrunken. A failed deletion fails
// the generation; succeeded writes are not rolled back, and deleted lists
// only the pages whose files are actually gone.
func (r *Runner) writeOutputs(g *graph.Graph, result *render.Result, deletions map[string]string, logger *slog.Logger) (map[string]string, []string, error) {
	outDir := r.Config.Output.Directory
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryIO, errors.SeverityFatal, "create output directory")
	}

	written := make(map[string]string, len(result.Outputs))
	for _, o := range result.Outputs {
		target, err := safeJoin(outDir, o.URL)
		if err != nil {
			logger.Warn("skipping output outside directory", "url", o.URL)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, nil, errors.Wrap(err, errors.CategoryIO, errors.SeverityFatal, "create output subdirectory").WithContext("url", o.URL)
		}
		if err := os.WriteFile(target, []byte(o.Content), 0o644); err != nil {
			return written, nil, errors.Wrap(err, errors.CategoryIO, errors.SeverityFatal, "write output file").WithContext("url", o.URL)
		}
		written[o.Owner.Path] = o.URL
	}

	var deleted []string
	var failed []string
	for path, url := range deletions {
		target, err := safeJoin(outDir, url)
		if err != nil {
			continue
		}
		switch err := os.Remove(target); {
		case err == nil, os.IsNotExist(err):
			deleted = append(deleted, path)
		default:
			logger.Error("could not delete stale output", "page", path, "url", url, "error", err)
			failed = append(failed, url)
		}
	}

	if r.Config.Output.Graph {
		target := filepath.Join(outDir, GraphFileName)
		if err := os.WriteFile(target, []byte(graph.DOT(g)), 0o644); err != nil {
			logger.Warn("could not write graph export", "error", err)
		}
	}
	if r.Config.Output.Styles {
		target := filepath.Join(outDir, StylesFileName)
		if err := os.WriteFile(target, syntaxStylesheet, 0o644); err != nil {
			logger.Warn("could not write stylesheet", "error", err)
		}
	}

	if len(failed) > 0 {
		return written, deleted, errors.New(errors.CategoryIO, errors.SeverityFatal,
			fmt.Sprintf("%d stale output(s) not deleted", len(failed))).
			WithContext("paths", strings.Join(failed, ", "))
	}
	return written, deleted, nil
}

func (r *Runner) ledgerOutputs(ctx context.Context, result *render.Result, deleted []string) error {
	if r.Ledger == nil {
		return nil
	}
	written := make(map[string]string, len(result.Outputs))
	for _, o := range result.Outputs {
		written[o.Owner.Path] = o.URL
	}
	return r.Ledger.SetOutputs(ctx, written, deleted)
}

// record persists the ledger row and publishes the generation event.
func (r *Runner) record(ctx context.Context, out *Outcome, runErr error, logger *slog.Logger) {
	outcome := "success"
	errText := ""
	if runErr != nil {
		outcome = "failed"
		errText = runErr.Error()
	}

	if r.Ledger != nil {
		gen := state.Generation{
			ID:             out.GenerationID,
			StartedAt:      time.Now().Add(-out.Duration),
			FinishedAt:     time.Now(),
			Outcome:        outcome,
			PagesRendered:  out.Rendered,
			OutputsWritten: out.Written,
			OutputsDeleted: out.Deleted,
			Revision:       r.Scheduler.Meta.Revision,
		}
		if err := r.Ledger.RecordGeneration(ctx, gen); err != nil {
			logger.Warn("could not record generation", "error", err)
		}
	}

	if r.Publisher != nil {
		event := events.GenerationEvent{
			GenerationID:   out.GenerationID,
			Outcome:        outcome,
			PagesRendered:  out.Rendered,
			OutputsWritten: out.Written,
			OutputsDeleted: out.Deleted,
			Duration:       out.Duration,
			Error:          errText,
			Revision:       r.Scheduler.Meta.Revision,
		}
		if err := r.Publisher.PublishGeneration(ctx, event); err != nil {
			logger.Warn("could not publish generation event", "error", err)
		}
	}
}

// safeJoin joins an output-relative URL under dir, rejecting traversal.
func safeJoin(dir, url string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(url))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("unsafe output path: %s", url)
	}
	return filepath.Join(dir, cleaned), nil
}

func allLabels(g *graph.Graph) sets.Set[graph.Label] {
	need := sets.New[graph.Label]()
	for _, n := range g.Nodes() {
		need.Add(n.Label)
	}
	return need
}
