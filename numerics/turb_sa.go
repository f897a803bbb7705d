package numerics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/fluxcalc/FVKernel/ad"
	"github.com/fluxcalc/FVKernel/config"
)

// TurbSA is the convective completion for the one-equation Spalart-Allmaras
// working variable. The variable is non-conservative, so the flux carries no
// density weighting.
type TurbSA struct{}

// RegisterExtraInputs registers the leading primitive entries of both nodes,
// through which the velocities enter the mean face-normal speed.
func (TurbSA) RegisterExtraInputs(w ad.Window, ctx *Context) {
	w.Input(ctx.PrimI[:ctx.NDim()+1])
	w.Input(ctx.PrimJ[:ctx.NDim()+1])
}

// FinishResidual applies the pure upwind formula to the working variable.
func (TurbSA) FinishResidual(c UpwindCoefficients, face FaceState, _ *config.Config,
	flux []float64, jacI, jacJ *mat.Dense) {
	flux[0] = c.A0*face.ScalarI[0] + c.A1*face.ScalarJ[0]
	jacI.Set(0, 0, c.A0)
	jacJ.Set(0, 0, c.A1)
}
