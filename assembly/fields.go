package assembly

import (
	"github.com/notargets/gocfd/utils"

	"github.com/fluxcalc/FVKernel/numerics"
)

// Fields is the node-major field storage read by the flux kernel: one
// primitive-variable row and one scalar row per node, plus grid velocities
// on moving grids. Rows are handed to the kernel as sub-slices of the
// backing storage, so populating a field is visible to the kernel without
// copying.
type Fields struct {
	NDim   int
	NVar   int
	NNodes int

	Prim    utils.Matrix // NNodes x (NDim+3): thermo entry, velocity, pressure, density
	Scalars utils.Matrix // NNodes x NVar
	GridVel utils.Matrix // NNodes x NDim, only allocated on moving grids

	Moving bool
}

// NewFields allocates field storage for nNodes nodes. Grid-velocity storage
// is only allocated when moving is true.
func NewFields(nNodes, nDim, nVar int, moving bool) *Fields {
	f := &Fields{
		NDim:    nDim,
		NVar:    nVar,
		NNodes:  nNodes,
		Prim:    utils.NewMatrix(nNodes, nDim+3),
		Scalars: utils.NewMatrix(nNodes, nVar),
		Moving:  moving,
	}
	if moving {
		f.GridVel = utils.NewMatrix(nNodes, nDim)
	}
	return f
}

// PrimRow returns node n's primitive buffer.
func (f *Fields) PrimRow(n int) []float64 {
	nc := f.NDim + 3
	return f.Prim.DataP[n*nc : (n+1)*nc]
}

// ScalarRow returns node n's transported-scalar buffer.
func (f *Fields) ScalarRow(n int) []float64 {
	return f.Scalars.DataP[n*f.NVar : (n+1)*f.NVar]
}

// GridVelRow returns node n's grid-velocity buffer. Only valid on moving
// grids.
func (f *Fields) GridVelRow(n int) []float64 {
	return f.GridVel.DataP[n*f.NDim : (n+1)*f.NDim]
}

// SetVelocity sets node n's velocity components.
func (f *Fields) SetVelocity(n int, v ...float64) {
	copy(f.PrimRow(n)[numerics.PrimVelOffset:numerics.PrimVelOffset+f.NDim], v)
}

// SetDensity sets node n's density.
func (f *Fields) SetDensity(n int, rho float64) {
	f.PrimRow(n)[numerics.PrimDensityOffset(f.NDim)] = rho
}

// SetScalars sets node n's transported scalars.
func (f *Fields) SetScalars(n int, vals ...float64) {
	copy(f.ScalarRow(n), vals)
}

// SetGridVelocity sets node n's grid velocity. Only valid on moving grids.
func (f *Fields) SetGridVelocity(n int, v ...float64) {
	copy(f.GridVelRow(n), v)
}
