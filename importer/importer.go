// Package importer wires the catalog source, the lineage provider and the
// model generator into the end-to-end view import flow: expand the
// dependency graph from the selected views, order it dependencies-first,
// filter it and emit one dbt model per surviving view.
package importer

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/K-Oxon/dbt-view-importer/depgraph"
	"github.com/K-Oxon/dbt-view-importer/filter"
	"github.com/K-Oxon/dbt-view-importer/generator"
	"github.com/K-Oxon/dbt-view-importer/naming"
	"github.com/K-Oxon/dbt-view-importer/view"
)

// ServiceConfig encapsulates the settings for creating an import Service.
type ServiceConfig struct {
	// Source answers catalog queries (view lists, definitions, schemas).
	Source view.Source

	// Provider answers lineage queries during graph expansion.
	Provider view.Provider

	// Generator renders and writes model files.
	Generator *generator.Generator

	// MaxDepth bounds the dependency traversal. Zero selects the default
	// depth; negative values disable expansion so only the selected views
	// themselves are imported.
	MaxDepth int

	// FetchWorkers bounds concurrent lineage lookups within one depth
	// level. Values below 2 disable concurrency.
	FetchWorkers int

	// IncludePatterns and ExcludePatterns select which views survive after
	// graph expansion. Excludes always win over includes.
	IncludePatterns []string
	ExcludePatterns []string

	// Preset selects the model naming strategy.
	Preset naming.Preset

	// Overwrite allows replacing model files that already exist in the
	// output directory.
	Overwrite bool

	// DryRun resolves and renders everything but writes no files.
	DryRun bool

	// Logger for emitting progress output. Defaults to a null logger.
	Logger *logrus.Entry
}

func (cfg *ServiceConfig) validate() error {
	var err *multierror.Error
	if cfg.Source == nil {
		err = multierror.Append(err, xerrors.Errorf("view source has not been provided"))
	}
	if cfg.Provider == nil {
		err = multierror.Append(err, xerrors.Errorf("lineage provider has not been provided"))
	}
	if cfg.Generator == nil {
		err = multierror.Append(err, xerrors.Errorf("model generator has not been provided"))
	}
	if cfg.Preset == "" {
		cfg.Preset = naming.DefaultPreset
	}
	if presetErr := cfg.Preset.Validate(); presetErr != nil {
		err = multierror.Append(err, presetErr)
	}
	if cfg.Logger == nil {
		nullLogger := logrus.New()
		nullLogger.SetOutput(io.Discard)
		cfg.Logger = logrus.NewEntry(nullLogger)
	}
	return err.ErrorOrNil()
}

// NamingConflictError reports that two distinct views map to the same model
// name under the selected preset. Proceeding would make one model silently
// overwrite the other, so the whole batch is rejected.
type NamingConflictError struct {
	ModelName string
	Refs      []view.Ref
}

func (e NamingConflictError) Error() string {
	names := make([]string, len(e.Refs))
	for i, ref := range e.Refs {
		names[i] = ref.String()
	}
	return fmt.Sprintf("model name %q is produced by multiple views: %s", e.ModelName, strings.Join(names, ", "))
}

// ResolvedView is one entry of a dependency-ordered import plan.
type ResolvedView struct {
	Ref       view.Ref
	ModelName string

	// Boundary marks views that were reached at the depth limit and not
	// expanded further.
	Boundary bool
}

// Resolution is the outcome of expanding, ordering and filtering a seed set.
type Resolution struct {
	// Ordered lists the surviving views, each preceded by everything it
	// depends on.
	Ordered []ResolvedView

	// Added lists the views that entered the plan through dependency
	// expansion rather than as seeds.
	Added []view.Ref

	// Excluded lists the expanded views that the include/exclude patterns
	// removed.
	Excluded []view.Ref

	// Warnings carries the non-fatal lineage failures from the expansion.
	Warnings []depgraph.Warning
}

// Skipped records a view that was resolved but not converted, with the
// reason.
type Skipped struct {
	Ref    view.Ref
	Reason string
}

// Summary is the outcome of a full import run.
type Summary struct {
	Converted []ResolvedView
	Skipped   []Skipped
	Warnings  []depgraph.Warning
}

// Service implements the view import flow.
type Service struct {
	cfg    ServiceConfig
	filter *filter.Filter
}

// NewService creates a new import service. Malformed include/exclude
// patterns are rejected here, before any catalog call is made.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("importer service: config validation failed: %w", err)
	}
	f, err := filter.New(cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, xerrors.Errorf("importer service: %w", err)
	}
	return &Service{cfg: cfg, filter: f}, nil
}

// Resolve expands the dependency graph from seeds, orders it
// dependencies-first and applies the view filter to the expanded set. A
// dependency cycle or a naming conflict aborts the whole resolution.
func (svc *Service) Resolve(ctx context.Context, seeds []view.Ref) (*Resolution, error) {
	g, warnings, err := depgraph.Build(ctx, seeds, svc.cfg.Provider, depgraph.BuildConfig{
		MaxDepth:     svc.cfg.MaxDepth,
		FetchWorkers: svc.cfg.FetchWorkers,
		Logger:       svc.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	order, err := depgraph.Sort(g)
	if err != nil {
		return nil, err
	}

	seedSet := make(map[view.Ref]bool, len(seeds))
	for _, seed := range seeds {
		seedSet[seed] = true
	}

	res := &Resolution{Warnings: warnings}
	byName := make(map[string][]view.Ref)
	for _, ref := range order {
		if !svc.filter.Match(ref) {
			res.Excluded = append(res.Excluded, ref)
			continue
		}
		if !seedSet[ref] {
			res.Added = append(res.Added, ref)
		}
		name := naming.ModelName(ref, svc.cfg.Preset)
		byName[name] = append(byName[name], ref)
		res.Ordered = append(res.Ordered, ResolvedView{
			Ref:       ref,
			ModelName: name,
			Boundary:  g.IsBoundary(ref),
		})
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if refs := byName[name]; len(refs) > 1 {
			return nil, NamingConflictError{ModelName: name, Refs: refs}
		}
	}

	svc.cfg.Logger.WithFields(logrus.Fields{
		"resolved": len(res.Ordered),
		"excluded": len(res.Excluded),
		"warnings": len(res.Warnings),
	}).Info("resolved view dependency graph")
	return res, nil
}

// Import lists the views of one dataset and imports them together with their
// dependencies.
func (svc *Service) Import(ctx context.Context, project, dataset string) (*Summary, error) {
	seeds, err := svc.cfg.Source.ListViews(ctx, project, dataset)
	if err != nil {
		return nil, xerrors.Errorf("list views in %s.%s: %w", project, dataset, err)
	}
	if len(seeds) == 0 {
		svc.cfg.Logger.WithFields(logrus.Fields{
			"project": project,
			"dataset": dataset,
		}).Warn("dataset contains no views")
		return &Summary{}, nil
	}
	return svc.ImportViews(ctx, seeds)
}

// ImportViews resolves the given seed views and converts each surviving view
// into a model file pair. Objects that turn out not to be views, catalog
// lookup failures and pre-existing outputs (without Overwrite) are skipped
// with a recorded reason rather than failing the run.
func (svc *Service) ImportViews(ctx context.Context, seeds []view.Ref) (*Summary, error) {
	res, err := svc.Resolve(ctx, seeds)
	if err != nil {
		return nil, err
	}
	return svc.ImportResolved(ctx, res)
}

// ImportResolved converts the views of an existing resolution. It allows
// callers to inspect or confirm the plan between resolving and writing.
func (svc *Service) ImportResolved(ctx context.Context, res *Resolution) (*Summary, error) {
	summary := &Summary{Warnings: res.Warnings}
	for _, rv := range res.Ordered {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		skipReason, err := svc.convert(ctx, rv)
		if err != nil {
			return summary, err
		}
		if skipReason != "" {
			svc.cfg.Logger.WithFields(logrus.Fields{
				"view":   rv.Ref.String(),
				"reason": skipReason,
			}).Warn("skipping view")
			summary.Skipped = append(summary.Skipped, Skipped{Ref: rv.Ref, Reason: skipReason})
			continue
		}
		summary.Converted = append(summary.Converted, rv)
	}

	svc.cfg.Logger.WithFields(logrus.Fields{
		"converted": len(summary.Converted),
		"skipped":   len(summary.Skipped),
		"dry_run":   svc.cfg.DryRun,
	}).Info("import complete")
	return summary, nil
}

// convert renders and writes the model files for one resolved view. A
// non-empty reason means the view was skipped; a non-nil error aborts the
// run.
func (svc *Service) convert(ctx context.Context, rv ResolvedView) (string, error) {
	tableType, err := svc.cfg.Source.TableType(ctx, rv.Ref)
	if err != nil {
		return fmt.Sprintf("table type lookup failed: %v", err), nil
	}
	if tableType != view.TypeView {
		return fmt.Sprintf("not a view (type %s)", tableType), nil
	}

	definition, err := svc.cfg.Source.Definition(ctx, rv.Ref)
	if err != nil {
		return fmt.Sprintf("definition lookup failed: %v", err), nil
	}
	columns, err := svc.cfg.Source.Schema(ctx, rv.Ref)
	if err != nil {
		return fmt.Sprintf("schema lookup failed: %v", err), nil
	}

	model, err := svc.cfg.Generator.Render(rv.Ref, definition, "", columns)
	if err != nil {
		// Template failures affect every view equally; abort instead of
		// skipping the whole batch one view at a time.
		return "", err
	}

	sqlExists, ymlExists := svc.cfg.Generator.Exists(rv.Ref)
	if (sqlExists || ymlExists) && !svc.cfg.Overwrite {
		return "model files already exist", nil
	}

	if svc.cfg.DryRun {
		svc.cfg.Logger.WithFields(logrus.Fields{
			"view":  rv.Ref.String(),
			"model": rv.ModelName,
		}).Info("dry run: would write model files")
		return "", nil
	}

	if err := svc.cfg.Generator.Write(model); err != nil {
		return "", err
	}
	svc.cfg.Logger.WithFields(logrus.Fields{
		"view":  rv.Ref.String(),
		"model": rv.ModelName,
		"sql":   model.SQLFile,
		"yml":   model.YMLFile,
	}).Info("converted view to dbt model")
	return "", nil
}
