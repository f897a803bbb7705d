package assembly

import (
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// System is the assembled equation system handed to an external solver: the
// global residual vector and, for implicit solves, the global Jacobian
// stored as a block-sparse array with one nVar x nVar block per pair of
// face-adjacent nodes.
type System struct {
	NNodes int
	NVar   int

	Residual []float64 // Flat, node-major: entry for (node n, var k) at n*NVar+k

	// Jacobian dimensions are (row node, column node, row var, column var).
	// Nil when the assembler was built for an explicit solve.
	Jacobian *sparse.SparseArray
}

// NewSystem allocates an empty system. Pass implicit=false to skip Jacobian
// storage.
func NewSystem(nNodes, nVar int, implicit bool) *System {
	s := &System{
		NNodes:   nNodes,
		NVar:     nVar,
		Residual: make([]float64, nNodes*nVar),
	}
	if implicit {
		s.Jacobian = sparse.ZerosSparse(nNodes, nNodes, nVar, nVar)
	}
	return s
}

// AddFlux accumulates sign*flux into node's residual entries.
func (s *System) AddFlux(node int, flux []float64, sign float64) {
	floats.AddScaled(s.Residual[node*s.NVar:(node+1)*s.NVar], sign, flux)
}

// AddJacobianBlock accumulates sign*block into the (row, col) node block of
// the global Jacobian. A no-op on explicit systems.
func (s *System) AddJacobianBlock(row, col int, block mat.Matrix, sign float64) {
	if s.Jacobian == nil {
		return
	}
	for k := 0; k < s.NVar; k++ {
		for l := 0; l < s.NVar; l++ {
			v := block.At(k, l)
			if v != 0 {
				s.Jacobian.AddVal(sign*v, row, col, k, l)
			}
		}
	}
}

// ResidualNorm returns the L2 norm of the residual vector.
func (s *System) ResidualNorm() float64 {
	return floats.Norm(s.Residual, 2)
}

// NodeResidual returns node n's residual entries as a sub-slice.
func (s *System) NodeResidual(n int) []float64 {
	return s.Residual[n*s.NVar : (n+1)*s.NVar]
}
