package assembly

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/fluxcalc/FVKernel/ad"
	"github.com/fluxcalc/FVKernel/config"
	"github.com/fluxcalc/FVKernel/numerics"
)

// cancelCheckStride is how many faces a worker processes between
// cancellation checks.
const cancelCheckStride = 256

// FacePartitioner divides the faces of a sweep among workers. The returned
// lists must be disjoint and cover every face exactly once. Mesh-aware
// partitioning (graph-based domain decomposition) lives outside this
// package; implementations here only need to balance the per-worker load.
type FacePartitioner interface {
	Partition(nFaces, nParts int) [][]int
}

// ContiguousPartitioner splits the face range into contiguous chunks of
// near-equal size.
type ContiguousPartitioner struct{}

// Partition implements FacePartitioner.
func (ContiguousPartitioner) Partition(nFaces, nParts int) [][]int {
	if nFaces <= 0 {
		return nil
	}
	if nParts > nFaces {
		nParts = nFaces
	}
	parts := make([][]int, nParts)
	base := nFaces / nParts
	rem := nFaces % nParts
	next := 0
	for p := 0; p < nParts; p++ {
		n := base
		if p < rem {
			n++
		}
		chunk := make([]int, n)
		for i := 0; i < n; i++ {
			chunk[i] = next
			next++
		}
		parts[p] = chunk
	}
	return parts
}

// Assembler sweeps a face set with the scalar upwind kernel and accumulates
// the per-face fluxes and Jacobians into a global System. Each worker owns
// its flux computer, face context and tape, so workers share no mutable
// state until the serial merge.
type Assembler struct {
	Faces  *FaceSet
	Fields *Fields
	Config *config.Config
	Model  numerics.ScalarModel

	NumWorkers  int
	Partitioner FacePartitioner
	Log         logrus.FieldLogger
}

// NewAssembler creates an assembler over the given faces and fields,
// validating that their shapes agree with the problem configuration.
func NewAssembler(faces *FaceSet, fields *Fields, cfg *config.Config, model numerics.ScalarModel) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if faces.NDim != cfg.NDim {
		return nil, fmt.Errorf("face set is %dD but configuration is %dD", faces.NDim, cfg.NDim)
	}
	if fields.NDim != cfg.NDim || fields.NVar != cfg.NVar {
		return nil, fmt.Errorf("fields sized (%d dims, %d vars) do not match configuration (%d dims, %d vars)",
			fields.NDim, fields.NVar, cfg.NDim, cfg.NVar)
	}
	if cfg.DynamicGrid && !fields.Moving {
		return nil, fmt.Errorf("dynamic grid configured but fields carry no grid velocities")
	}
	if model == nil {
		return nil, fmt.Errorf("scalar model is required")
	}
	return &Assembler{
		Faces:       faces,
		Fields:      fields,
		Config:      cfg,
		Model:       model,
		NumWorkers:  runtime.GOMAXPROCS(0),
		Partitioner: ContiguousPartitioner{},
		Log:         logrus.StandardLogger(),
	}, nil
}

// Assemble sweeps every face once and returns the assembled system. The
// sweep is parallel across workers; accumulation into the returned system is
// serial, so the result is independent of worker scheduling. ctx cancels the
// sweep between faces.
func (a *Assembler) Assemble(ctx context.Context) (*System, error) {
	nFaces := a.Faces.NumFaces()
	implicit := a.Config.TimeScheme == config.EulerImplicit

	nWorkers := a.NumWorkers
	if nWorkers < 1 {
		nWorkers = 1
	}
	if nWorkers > nFaces {
		nWorkers = nFaces
	}
	if nWorkers < 1 {
		// Empty face set: nothing to sweep.
		return NewSystem(a.Fields.NNodes, a.Config.NVar, implicit), nil
	}

	parts := a.Partitioner.Partition(nFaces, nWorkers)

	a.Log.WithFields(logrus.Fields{
		"faces":    nFaces,
		"workers":  len(parts),
		"nvar":     a.Config.NVar,
		"implicit": implicit,
	}).Info("assembling scalar convective fluxes")
	start := time.Now()

	partials := make([]*System, len(parts))
	errs := make([]error, len(parts))

	var wg sync.WaitGroup
	for p := range parts {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			partials[p], errs[p] = a.sweepWorker(ctx, parts[p], implicit)
		}(p)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// Serial merge keeps the accumulation order deterministic.
	sys := NewSystem(a.Fields.NNodes, a.Config.NVar, implicit)
	for _, part := range partials {
		floats.Add(sys.Residual, part.Residual)
		if implicit {
			sys.Jacobian.AddSparse(part.Jacobian)
		}
	}

	a.Log.WithFields(logrus.Fields{
		"elapsed":       time.Since(start),
		"residual_norm": sys.ResidualNorm(),
	}).Debug("face sweep complete")

	return sys, nil
}

// sweepWorker processes one worker's share of faces with its own computer
// and tape, accumulating into a worker-local system.
func (a *Assembler) sweepWorker(ctx context.Context, faces []int, implicit bool) (*System, error) {
	comp, err := numerics.NewScalarUpwind(a.Config.NDim, a.Config.NVar, a.Config, a.Model, ad.NewTape())
	if err != nil {
		return nil, fmt.Errorf("creating flux computer: %w", err)
	}

	sys := NewSystem(a.Fields.NNodes, a.Config.NVar, implicit)
	nctx := comp.Ctx()

	for n, f := range faces {
		if n%cancelCheckStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		left, right := a.Faces.Left[f], a.Faces.Right[f]
		nctx.SetNormal(a.Faces.Normal(f))
		nctx.SetPrimitive(a.Fields.PrimRow(left), a.Fields.PrimRow(right))
		nctx.SetScalarVar(a.Fields.ScalarRow(left), a.Fields.ScalarRow(right))
		if a.Fields.Moving {
			nctx.SetGridVel(a.Fields.GridVelRow(left), a.Fields.GridVelRow(right))
		}

		res := comp.ComputeResidual(a.Config)

		// The flux leaves the owner and enters the neighbor.
		sys.AddFlux(left, res.Flux, 1)
		sys.AddFlux(right, res.Flux, -1)
		if implicit {
			sys.AddJacobianBlock(left, left, res.JacobianI, 1)
			sys.AddJacobianBlock(left, right, res.JacobianJ, 1)
			sys.AddJacobianBlock(right, left, res.JacobianI, -1)
			sys.AddJacobianBlock(right, right, res.JacobianJ, -1)
		}
	}

	return sys, nil
}
