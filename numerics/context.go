// Package numerics implements the per-face convective flux kernel of a
// finite-volume scalar transport solver. A flux computer reads the state of
// the two nodes sharing a face from its Context, evaluates the upwind
// numerical flux of the transported scalars across the face, and returns the
// flux together with its Jacobians with respect to both nodes' scalars.
package numerics

// Primitive-variable buffer layout for one node. The buffer begins with a
// thermodynamic entry, followed by the velocity components, the pressure,
// and then the density.
const (
	// PrimVelOffset is the index of the first velocity component.
	PrimVelOffset = 1
)

// PrimDensityOffset returns the index of the density within a node's
// primitive buffer.
func PrimDensityOffset(nDim int) int {
	return nDim + 2
}

// Context carries the per-face inputs of a flux computation. It is populated
// by the assembly loop before each call via the setters; the kernel treats
// every buffer as read-only and references them without copying, so they
// must stay valid for the duration of the call.
type Context struct {
	nDim int

	Normal []float64 // Outward face normal scaled by face area, length nDim

	PrimI []float64 // Node i primitive buffer, density at PrimDensityOffset
	PrimJ []float64 // Node j primitive buffer

	ScalarI []float64 // Node i transported scalars, length nVar
	ScalarJ []float64 // Node j transported scalars

	GridVelI []float64 // Node i grid velocity, length nDim; moving grids only
	GridVelJ []float64 // Node j grid velocity
}

// NewContext creates a context for faces of the given dimensionality.
func NewContext(nDim int) *Context {
	return &Context{nDim: nDim}
}

// NDim returns the spatial dimensionality of the context's faces.
func (c *Context) NDim() int {
	return c.nDim
}

// SetNormal sets the area-scaled outward face normal.
func (c *Context) SetNormal(normal []float64) {
	c.Normal = normal
}

// SetPrimitive sets the primitive-variable buffers of nodes i and j.
func (c *Context) SetPrimitive(vi, vj []float64) {
	c.PrimI = vi
	c.PrimJ = vj
}

// SetScalarVar sets the transported scalar buffers of nodes i and j.
func (c *Context) SetScalarVar(si, sj []float64) {
	c.ScalarI = si
	c.ScalarJ = sj
}

// SetGridVel sets the grid velocities of nodes i and j. Only read on moving
// grids.
func (c *Context) SetGridVel(gi, gj []float64) {
	c.GridVelI = gi
	c.GridVelJ = gj
}

// VelocityI returns the velocity components of node i's primitive buffer.
func (c *Context) VelocityI() []float64 {
	return c.PrimI[PrimVelOffset : PrimVelOffset+c.nDim]
}

// VelocityJ returns the velocity components of node j's primitive buffer.
func (c *Context) VelocityJ() []float64 {
	return c.PrimJ[PrimVelOffset : PrimVelOffset+c.nDim]
}
