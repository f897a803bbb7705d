package numerics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/fluxcalc/FVKernel/ad"
	"github.com/fluxcalc/FVKernel/config"
)

// TurbSST is the convective completion for the two-equation SST model. The
// turbulence kinetic energy and specific dissipation are conservative, so
// each side's contribution is weighted by that side's density.
type TurbSST struct{}

// RegisterExtraInputs registers both nodes' primitive entries up to and
// including the density, which enters the flux directly.
func (TurbSST) RegisterExtraInputs(w ad.Window, ctx *Context) {
	n := PrimDensityOffset(ctx.NDim()) + 1
	w.Input(ctx.PrimI[:n])
	w.Input(ctx.PrimJ[:n])
}

// FinishResidual applies the density-weighted upwind formula to both
// transported variables. The two equations are uncoupled in convection, so
// the Jacobians stay diagonal.
func (TurbSST) FinishResidual(c UpwindCoefficients, face FaceState, _ *config.Config,
	flux []float64, jacI, jacJ *mat.Dense) {
	for k := range flux {
		flux[k] = c.A0*face.DensityI*face.ScalarI[k] + c.A1*face.DensityJ*face.ScalarJ[k]
		jacI.Set(k, k, c.A0*face.DensityI)
		jacJ.Set(k, k, c.A1*face.DensityJ)
	}
}
