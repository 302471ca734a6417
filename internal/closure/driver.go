package closure

import (
	"context"
	"log/slog"
	"time"

	"thinner/internal/errors"
	"thinner/internal/metadata"
	"thinner/internal/model"
)

// Options configure a closure run.
type Options struct {
	// IncludedAssemblies names the assemblies being thinned. Entities of
	// other assemblies may be referenced but are never traversed or
	// written out. Empty means every loaded assembly.
	IncludedAssemblies []string
	Fields             FieldOptions
}

// Stats summarizes a run.
type Stats struct {
	Pass            string         `json:"pass"`
	Retained        metadata.Stats `json:"retained"`
	Iterations      int            `json:"iterations"`
	VirtualAdded    int            `json:"virtualAdded"`
	CtorAdded       int            `json:"ctorAdded"`
	Hidden          int            `json:"hidden"`
	Unconstructible int            `json:"unconstructible"`
	Duration        time.Duration  `json:"duration"`
}

// Result is the annotated output of a run.
type Result struct {
	Model *model.Model
	// Unconstructible lists types with a base class for which no retained
	// constructor chain could be found.
	Unconstructible []string
	Stats           Stats
}

// Engine runs closures over one program. It is safe for concurrent use;
// every run owns its own Depot.
type Engine struct {
	program *metadata.Program
	opts    Options
	logger  *slog.Logger
}

// NewEngine creates an engine.
func NewEngine(p *metadata.Program, opts Options, logger *slog.Logger) *Engine {
	return &Engine{program: p, opts: opts, logger: logger}
}

// RunApi computes the API closure of the ApiRoot and ApiFxInternal
// elements of roots using the surface policy. The output also carries the
// ImplRoot elements of roots, so that it can feed RunImpl directly.
func (e *Engine) RunApi(ctx context.Context, roots *model.Model) (*Result, error) {
	res, err := e.run(ctx, apiPass, roots)
	if err != nil {
		return nil, err
	}
	roots.CombineStatus(model.StatusImplRoot, res.Model)
	return res, nil
}

// RunImpl computes the implementation closure of every root using the
// full policy.
func (e *Engine) RunImpl(ctx context.Context, roots *model.Model) (*Result, error) {
	return e.run(ctx, implPass, roots)
}

// run is the state of one closure computation.
type run struct {
	pass       pass
	program    *metadata.Program
	depot      *Depot
	roots      *rootIndex
	included   map[string]bool
	canInclude metadata.TypeFilter
	logger     *slog.Logger

	unconstructible []string
}

func (e *Engine) newRun(p pass, roots *model.Model) *run {
	r := &run{
		pass:    p,
		program: e.program,
		depot:   NewDepot(e.program),
		roots:   indexRoots(roots),
		logger:  e.logger.With("pass", p.name),
	}

	r.included = make(map[string]bool, len(e.opts.IncludedAssemblies))
	for _, name := range e.opts.IncludedAssemblies {
		r.included[name] = true
	}
	r.canInclude = func(t *metadata.Type) bool { return r.includesAssembly(t.Assembly) }
	return r
}

func (e *Engine) run(ctx context.Context, p pass, roots *model.Model) (*Result, error) {
	start := time.Now()
	if err := roots.Bind(e.program); err != nil {
		return nil, err
	}

	r := e.newRun(p, roots)
	var policy Policy
	if p.surface {
		policy = newSurface(r)
	} else {
		policy = newFull(r, e.opts.Fields)
	}

	if err := r.importRoots(roots); err != nil {
		return nil, err
	}
	r.logger.Debug("Roots imported", "entities", r.depot.Len())

	stats := Stats{Pass: p.name}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats.Iterations++
		if err := r.drain(policy); err != nil {
			return nil, err
		}

		added, err := r.closeVirtuals()
		if err != nil {
			return nil, err
		}
		stats.VirtualAdded += added
		if added > 0 {
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		added, err = r.closeConstructors()
		if err != nil {
			return nil, err
		}
		stats.CtorAdded += added
		if added == 0 {
			break
		}
	}

	out, hidden, err := r.export(roots)
	if err != nil {
		return nil, err
	}

	stats.Retained = r.depot.Stats()
	stats.Hidden = hidden
	stats.Unconstructible = len(r.unconstructible)
	stats.Duration = time.Since(start)
	r.logger.Info("Closure complete",
		"retained", stats.Retained.String(),
		"iterations", stats.Iterations,
		"hidden", hidden,
		"unconstructible", stats.Unconstructible,
		"duration", stats.Duration)

	return &Result{Model: out, Unconstructible: r.unconstructible, Stats: stats}, nil
}

// importRoots seeds the depot with the model elements imported by the pass.
func (r *run) importRoots(roots *model.Model) error {
	var err error
	keep := func(add func() error) {
		if err == nil {
			err = add()
		}
	}
	roots.Walk(
		func(a *model.Assembly) {
			if r.pass.imported(a.Status) {
				keep(func() error { return r.depot.AddAssembly(a.Metadata()) })
			}
		},
		func(t *model.Type) {
			if r.pass.imported(t.Status) {
				keep(func() error { return r.depot.AddType(t.Metadata()) })
			}
		},
		func(mem *model.Member) {
			if r.pass.imported(mem.Status) {
				keep(func() error { return r.depot.AddMember(mem.Metadata()) })
			}
		},
		func(f *model.Forwarder) {
			if r.pass.imported(f.Status) {
				keep(func() error { return r.depot.AddForwarder(f.Metadata()) })
			}
		},
	)
	return err
}

// drain visits queued nodes until the queue is empty. Nodes of assemblies
// outside the thinned set are retained but not traversed.
func (r *run) drain(policy Policy) error {
	for {
		n, ok := r.depot.next()
		if !ok {
			return nil
		}
		if !r.includable(n) {
			continue
		}
		if err := policy.Visit(n); err != nil {
			return errors.New(errors.CodeOf(err), "while retaining "+n.String(), err)
		}
	}
}

func (r *run) includesAssembly(a *metadata.Assembly) bool {
	return len(r.included) == 0 || r.included[a.Name]
}

func (r *run) includable(n Node) bool { return r.includesAssembly(assemblyOf(n)) }

func errUnknownNode(n Node) error {
	return errors.Newf(errors.InternalError, "unknown node %T", n)
}
