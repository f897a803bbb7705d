package numerics

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/fluxcalc/FVKernel/ad"
	"github.com/fluxcalc/FVKernel/config"
)

// UpwindCoefficients is the signed split of the face-normal convective speed
// q_ij: A0 = max(q_ij, 0) weights the node-i scalars and A1 = min(q_ij, 0)
// weights the node-j scalars. They are recomputed on every call and never
// persisted.
type UpwindCoefficients struct {
	A0, A1 float64
}

// FaceState bundles the model-visible face state passed to a completion
// hook: the two scalar buffers and the two densities extracted from the
// primitive buffers.
type FaceState struct {
	ScalarI, ScalarJ   []float64
	DensityI, DensityJ float64
}

// ScalarModel is the extension point that turns the shared upwind skeleton
// into a concrete transported-quantity discretization. The general structure
// of a scalar upwinding calculation is the same for many models; a model
// supplies only what differs: which extra state its formula depends on, and
// the formula itself.
//
// Implementations must be stateless formulas over their inputs; one model
// value may be shared by any number of flux computers.
type ScalarModel interface {
	// RegisterExtraInputs declares to the differentiation window any state
	// beyond the generic set (normal, scalars, grid velocities) that the
	// model's formula reads. It must have no effect besides the tape
	// registrations.
	RegisterExtraInputs(w ad.Window, ctx *Context)

	// FinishResidual writes the flux and both Jacobians for the face. The
	// flux slice and both matrices arrive zeroed and sized nVar; the hook
	// must fill every entry it needs on every call. For the canonical pure
	// upwind form, entry k is
	//
	//	flux[k] = c.A0*face.ScalarI[k] + c.A1*face.ScalarJ[k]
	//
	// scaled by model-specific density factors, with the matching a0/a1
	// terms on the Jacobian diagonals. Models with cross-component coupling
	// populate off-diagonal entries.
	FinishResidual(c UpwindCoefficients, face FaceState, cfg *config.Config,
		flux []float64, jacI, jacJ *mat.Dense)
}

var modelNames = map[string]func() ScalarModel{
	"sa":      func() ScalarModel { return TurbSA{} },
	"sst":     func() ScalarModel { return TurbSST{} },
	"species": func() ScalarModel { return Species{} },
}

// NewScalarModel builds the completion model for a label, as used in problem
// configuration files.
func NewScalarModel(label string) (ScalarModel, error) {
	mk, ok := modelNames[strings.ToLower(label)]
	if !ok {
		return nil, fmt.Errorf("unknown scalar model %q", label)
	}
	return mk(), nil
}
