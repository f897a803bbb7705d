package numerics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/fluxcalc/FVKernel/ad"
	"github.com/fluxcalc/FVKernel/config"
)

// Species is the convective completion for passive species mass fractions,
// for any number of transported species. Mass fractions are carried per unit
// mass, so the convected quantity is density weighted.
type Species struct{}

// RegisterExtraInputs registers both nodes' densities.
func (Species) RegisterExtraInputs(w ad.Window, ctx *Context) {
	rho := PrimDensityOffset(ctx.NDim())
	w.InputValues(ctx.PrimI[rho], ctx.PrimJ[rho])
}

// FinishResidual applies the density-weighted upwind formula independently
// to every species; there is no cross-species coupling in convection.
func (Species) FinishResidual(c UpwindCoefficients, face FaceState, _ *config.Config,
	flux []float64, jacI, jacJ *mat.Dense) {
	for k := range flux {
		flux[k] = c.A0*face.DensityI*face.ScalarI[k] + c.A1*face.DensityJ*face.ScalarJ[k]
		jacI.Set(k, k, c.A0*face.DensityI)
		jacJ.Set(k, k, c.A1*face.DensityJ)
	}
}
