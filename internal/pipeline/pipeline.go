package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/TobiSchelling/climatetrends/internal/chart"
	"github.com/TobiSchelling/climatetrends/internal/config"
	"github.com/TobiSchelling/climatetrends/internal/database"
	"github.com/TobiSchelling/climatetrends/internal/dataset"
	"github.com/TobiSchelling/climatetrends/internal/report"
)

// Fetcher downloads a remote resource verbatim to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Renderer turns the normalized tables into chart files.
type Renderer interface {
	Render(set chart.Set) ([]string, error)
}

// Recorder stores a summary of each run.
type Recorder interface {
	InsertRun(run database.Run) (int64, error)
	InsertDatasetStats(runID int64, stats []database.DatasetStats) error
}

// Stage names the pipeline phase a failure happened in.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageNormalize Stage = "normalize"
	StageRender    Stage = "render"
)

// StageError is the terminal failure of a run.
type StageError struct {
	Stage   Stage
	Dataset string
	Err     error
}

func (e *StageError) Error() string {
	if e.Dataset != "" {
		return fmt.Sprintf("could not process %s dataset: %v", e.Dataset, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// DatasetSummary describes one normalized table.
type DatasetSummary struct {
	Name      string
	Rows      int
	FirstYear int
	LastYear  int
	Skipped   int
}

// Result holds the results of a full pipeline run. Exactly one of Tables and
// Failure is set once Run returns.
type Result struct {
	RunID      int64
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepResult
	Datasets   []DatasetSummary
	Tables     *chart.Set
	Charts     []string
	Report     string
	Failure    *StageError
}

// OK reports whether the run rendered its charts.
func (r *Result) OK() bool { return r.Failure == nil }

// Err returns the terminal failure, or nil.
func (r *Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Pipeline orchestrates fetch, normalize and render.
type Pipeline struct {
	cfg      *config.Config
	fetcher  Fetcher
	renderer Renderer
	recorder Recorder
	clock    clockwork.Clock
}

// New creates a pipeline. recorder may be nil to skip run history.
func New(cfg *config.Config, fetcher Fetcher, renderer Renderer, recorder Recorder) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		renderer: renderer,
		recorder: recorder,
		clock:    clockwork.NewRealClock(),
	}
}

// SetClock swaps the time source used for run timestamps. Pass nil to reset.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	p.clock = c
}

// Run fetches every source, normalizes each, and renders the charts. The first
// normalization failure stops the run before any chart is drawn.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{StartedAt: p.clock.Now()}
	defer p.finish(r)

	log.Println("Step 1/3: Fetching datasets...")
	for _, src := range p.sources() {
		r.Steps = append(r.Steps, p.runFetch(ctx, src))
	}

	log.Println("Step 2/3: Normalizing datasets...")
	set, ok := p.runNormalize(r)
	if !ok {
		return r
	}

	log.Println("Step 3/3: Rendering charts...")
	step := p.runRender(r, set)
	r.Steps = append(r.Steps, step)
	return r
}

// DryRun shows what would be done without touching the network or disk.
func (p *Pipeline) DryRun() *Result {
	r := &Result{StartedAt: p.clock.Now()}
	for _, src := range p.sources() {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Fetch " + src.Name,
			Summary: fmt.Sprintf("[dry-run] would download %s -> %s", src.URL, p.cfg.SourcePath(src)),
		})
	}
	for _, src := range p.sources() {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Normalize " + src.Name,
			Summary: fmt.Sprintf("[dry-run] would normalize %s", p.cfg.SourcePath(src)),
		})
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Render",
		Summary: fmt.Sprintf("[dry-run] would render %d charts into %s", len(chart.Files()), p.cfg.Output.ChartsDir),
	})
	r.FinishedAt = r.StartedAt
	return r
}

func (p *Pipeline) sources() []config.Source {
	s := p.cfg.Sources
	return []config.Source{s.Temperature, s.CO2, s.SeaLevel}
}

// runFetch downloads one source. Failures are logged and reported on the step
// but never end the run; the load step surfaces the missing file later.
func (p *Pipeline) runFetch(ctx context.Context, src config.Source) StepResult {
	dest := p.cfg.SourcePath(src)
	step := StepResult{Name: "Fetch " + src.Name}
	if err := p.fetcher.Fetch(ctx, src.URL, dest); err != nil {
		log.Printf("Failed to download %s: %v", dest, err)
		step.Err = err
		return step
	}
	log.Printf("Downloaded %s successfully", dest)
	step.Summary = "Downloaded " + dest
	return step
}

func (p *Pipeline) runNormalize(r *Result) (chart.Set, bool) {
	var set chart.Set
	sources := p.cfg.Sources

	loaders := []struct {
		src  config.Source
		load func(path string) (dataset.Table, int, error)
		dst  *dataset.Table
	}{
		{sources.Temperature, func(path string) (dataset.Table, int, error) {
			t, stats, err := dataset.LoadTemperature(path)
			return t, stats.Skipped, err
		}, &set.Temperature},
		{sources.CO2, func(path string) (dataset.Table, int, error) {
			t, err := dataset.LoadCO2(path)
			return t, 0, err
		}, &set.CO2},
		{sources.SeaLevel, func(path string) (dataset.Table, int, error) {
			t, err := dataset.LoadSeaLevel(path)
			return t, 0, err
		}, &set.SeaLevel},
	}

	for _, l := range loaders {
		path := p.cfg.SourcePath(l.src)
		table, skipped, err := l.load(path)
		step := StepResult{Name: "Normalize " + l.src.Name}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Printf("File %s not found. Please download it first.", path)
			}
			step.Err = err
			r.Steps = append(r.Steps, step)
			r.Failure = &StageError{Stage: StageNormalize, Dataset: l.src.Name, Err: err}
			return chart.Set{}, false
		}

		summary := summarize(l.src.Name, table, skipped)
		r.Datasets = append(r.Datasets, summary)
		step.Summary = describe(summary)
		r.Steps = append(r.Steps, step)
		*l.dst = table
	}
	return set, true
}

func (p *Pipeline) runRender(r *Result, set chart.Set) StepResult {
	step := StepResult{Name: "Render"}
	charts, err := p.renderer.Render(set)
	if err != nil {
		step.Err = err
		r.Failure = &StageError{Stage: StageRender, Err: err}
		return step
	}

	r.Tables = &set
	r.Charts = charts
	r.Report = report.Build(report.Input{
		Temperature: set.Temperature,
		CO2:         set.CO2,
		SeaLevel:    set.SeaLevel,
		Charts:      baseNames(charts),
		GeneratedAt: p.clock.Now(),
	})
	log.Println("All visualizations have been created successfully!")
	step.Summary = fmt.Sprintf("Rendered %d charts", len(charts))
	return step
}

// finish stamps the end time and records the run when a recorder is set.
func (p *Pipeline) finish(r *Result) {
	r.FinishedAt = p.clock.Now()
	if p.recorder == nil {
		return
	}

	run := database.Run{
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Status:         database.StatusSuccess,
		ReportMarkdown: r.Report,
	}
	if r.Failure != nil {
		run.Status = database.StatusFailed
		run.FailedStage = string(r.Failure.Stage)
		run.Message = r.Failure.Error()
	}

	id, err := p.recorder.InsertRun(run)
	if err != nil {
		log.Printf("Error recording run: %v", err)
		return
	}
	r.RunID = id

	stats := make([]database.DatasetStats, len(r.Datasets))
	for i, d := range r.Datasets {
		stats[i] = database.DatasetStats{
			Dataset:   d.Name,
			Rows:      d.Rows,
			FirstYear: d.FirstYear,
			LastYear:  d.LastYear,
			Skipped:   d.Skipped,
		}
	}
	if err := p.recorder.InsertDatasetStats(id, stats); err != nil {
		log.Printf("Error recording dataset stats: %v", err)
	}
}

func summarize(name string, t dataset.Table, skipped int) DatasetSummary {
	s := DatasetSummary{Name: name, Rows: t.Len(), Skipped: skipped}
	if first, last, ok := t.YearRange(); ok {
		s.FirstYear, s.LastYear = first, last
	}
	return s
}

func describe(s DatasetSummary) string {
	out := fmt.Sprintf("%d rows", s.Rows)
	if s.Rows > 0 {
		out += fmt.Sprintf(" (%d-%d)", s.FirstYear, s.LastYear)
	}
	if s.Skipped > 0 {
		out += fmt.Sprintf(", %d lines skipped", s.Skipped)
	}
	return out
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
