package numerics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/fluxcalc/FVKernel/ad"
	"github.com/fluxcalc/FVKernel/config"
)

// Residual is a read-only view of one face's flux and Jacobians. The view
// aliases buffers owned by the computer that produced it and is valid only
// until the next ComputeResidual call on that computer; consume it before
// invoking the computer again.
type Residual struct {
	Flux      []float64
	JacobianI mat.Matrix // Sensitivity of Flux to node i scalars, nVar x nVar
	JacobianJ mat.Matrix // Sensitivity of Flux to node j scalars
}

// ScalarUpwind computes the convective flux of transported scalars across
// one face using first-order upwinding. It owns the computation skeleton
// shared by all scalar models: mass-flux evaluation, upwind coefficient
// split, differentiation-tape bracketing, and result packaging. The
// model-specific residual formula is delegated to a ScalarModel.
//
// A computer is not safe for concurrent use: its flux and Jacobian buffers
// are overwritten in place on every call and the returned view aliases them.
// Parallel assembly requires one computer per worker.
type ScalarUpwind struct {
	nDim, nVar int

	implicit       bool
	incompressible bool
	dynamicGrid    bool

	model ScalarModel
	tape  *ad.Tape
	ctx   *Context

	a0, a1 float64

	// Allocated once at construction, reused by every call.
	flux []float64
	jacI *mat.Dense
	jacJ *mat.Dense
}

// NewScalarUpwind creates a flux computer for faces of dimensionality nDim
// carrying nVar transported scalars. The implicit, incompressible and
// dynamic-grid flags are derived from cfg once and fixed for the computer's
// lifetime. A nil tape selects the process-default tape.
func NewScalarUpwind(nDim, nVar int, cfg *config.Config, model ScalarModel, tape *ad.Tape) (*ScalarUpwind, error) {
	if nVar < 1 {
		return nil, fmt.Errorf("nVar must be at least 1, got %d", nVar)
	}
	if nDim != 2 && nDim != 3 {
		return nil, fmt.Errorf("nDim must be 2 or 3, got %d", nDim)
	}
	if model == nil {
		return nil, fmt.Errorf("scalar model is required")
	}
	if tape == nil {
		tape = ad.Default()
	}
	return &ScalarUpwind{
		nDim:           nDim,
		nVar:           nVar,
		implicit:       cfg.TimeScheme == config.EulerImplicit,
		incompressible: cfg.Regime == config.Incompressible,
		dynamicGrid:    cfg.DynamicGrid,
		model:          model,
		tape:           tape,
		ctx:            NewContext(nDim),
		flux:           make([]float64, nVar),
		jacI:           mat.NewDense(nVar, nVar, nil),
		jacJ:           mat.NewDense(nVar, nVar, nil),
	}, nil
}

// Ctx returns the computer's face context. The assembly loop populates it
// before each ComputeResidual call.
func (s *ScalarUpwind) Ctx() *Context {
	return s.ctx
}

// NDim returns the computer's spatial dimensionality.
func (s *ScalarUpwind) NDim() int { return s.nDim }

// NVar returns the number of transported scalars per node.
func (s *ScalarUpwind) NVar() int { return s.nVar }

// Implicit reports whether the outer solve is fully implicit. Jacobians are
// computed either way; the flag tells the caller whether to assemble them.
func (s *ScalarUpwind) Implicit() bool { return s.implicit }

// Incompressible reports the flow regime derived at construction.
func (s *ScalarUpwind) Incompressible() bool { return s.incompressible }

// DynamicGrid reports whether grid-velocity terms are included.
func (s *ScalarUpwind) DynamicGrid() bool { return s.dynamicGrid }

// ComputeResidual computes the scalar upwind flux between the two nodes of
// the current face and its Jacobians with respect to both nodes' scalars.
//
// The face normal, primitive buffers and scalar buffers must already be set
// on the context, and grid velocities too on moving grids; cfg must agree
// with the construction-time configuration. Neither is checked here. The
// call performs no heap allocation and is deterministic: its only effects
// are the overwrite of the owned buffers and the tape recording.
func (s *ScalarUpwind) ComputeResidual(cfg *config.Config) Residual {
	w := s.tape.StartPreacc()
	defer w.End()

	ctx := s.ctx
	w.Input(ctx.Normal)
	w.Input(ctx.ScalarI)
	w.Input(ctx.ScalarJ)
	if s.dynamicGrid {
		w.Input(ctx.GridVelI)
		w.Input(ctx.GridVelJ)
	}
	s.model.RegisterExtraInputs(w, ctx)

	rhoOff := PrimDensityOffset(s.nDim)
	face := FaceState{
		ScalarI:  ctx.ScalarI,
		ScalarJ:  ctx.ScalarJ,
		DensityI: ctx.PrimI[rhoOff],
		DensityJ: ctx.PrimJ[rhoOff],
	}

	// Face-normal component of the mean velocity, grid-relative on moving
	// grids.
	qij := 0.0
	if s.dynamicGrid {
		for d := 0; d < s.nDim; d++ {
			vi := ctx.PrimI[PrimVelOffset+d] - ctx.GridVelI[d]
			vj := ctx.PrimJ[PrimVelOffset+d] - ctx.GridVelJ[d]
			qij += 0.5 * (vi + vj) * ctx.Normal[d]
		}
	} else {
		for d := 0; d < s.nDim; d++ {
			qij += 0.5 * (ctx.PrimI[PrimVelOffset+d] + ctx.PrimJ[PrimVelOffset+d]) * ctx.Normal[d]
		}
	}

	// Upwind switch: a0 carries the flow leaving node i, a1 the flow
	// entering from node j. a0 + a1 == qij exactly.
	s.a0 = 0.5 * (qij + math.Abs(qij))
	s.a1 = 0.5 * (qij - math.Abs(qij))

	for k := range s.flux {
		s.flux[k] = 0
	}
	s.jacI.Zero()
	s.jacJ.Zero()

	s.model.FinishResidual(UpwindCoefficients{A0: s.a0, A1: s.a1}, face, cfg,
		s.flux, s.jacI, s.jacJ)

	w.Output(s.flux)

	return Residual{Flux: s.flux, JacobianI: s.jacI, JacobianJ: s.jacJ}
}
