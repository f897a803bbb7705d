// Package assembly drives the face-flux kernel over a set of interior faces:
// it populates the kernel's context for one face at a time, sweeps faces in
// parallel with one flux computer per worker, and accumulates the per-face
// results into a global residual vector and block-sparse Jacobian. The
// linear or nonlinear solver that consumes the assembled system is external
// to this package.
package assembly

import (
	"fmt"
)

// FaceSet is the interior-face connectivity of a mesh region: for each face,
// the owner node, the neighbor node, and the outward normal scaled by the
// face area, oriented from owner to neighbor.
//
// Face normals are assumed non-degenerate; mesh quality is the mesh
// generator's responsibility and is not validated here.
type FaceSet struct {
	NDim int

	Left    []int     // Owner node per face
	Right   []int     // Neighbor node per face
	Normals []float64 // Area-scaled normals, nFaces x NDim, face-major
}

// NewFaceSet creates a face set and validates the connectivity shape against
// the node count.
func NewFaceSet(nDim, nNodes int, left, right []int, normals []float64) (*FaceSet, error) {
	if nDim != 2 && nDim != 3 {
		return nil, fmt.Errorf("nDim must be 2 or 3, got %d", nDim)
	}
	if len(left) != len(right) {
		return nil, fmt.Errorf("left/right length mismatch: %d vs %d", len(left), len(right))
	}
	if len(normals) != len(left)*nDim {
		return nil, fmt.Errorf("normals length %d does not match %d faces x %d dims",
			len(normals), len(left), nDim)
	}
	for f := range left {
		if left[f] < 0 || left[f] >= nNodes || right[f] < 0 || right[f] >= nNodes {
			return nil, fmt.Errorf("face %d references node out of range [0,%d): left=%d right=%d",
				f, nNodes, left[f], right[f])
		}
		if left[f] == right[f] {
			return nil, fmt.Errorf("face %d connects node %d to itself", f, left[f])
		}
	}
	return &FaceSet{NDim: nDim, Left: left, Right: right, Normals: normals}, nil
}

// NumFaces returns the number of faces in the set.
func (fs *FaceSet) NumFaces() int {
	return len(fs.Left)
}

// Normal returns the area-scaled normal of face f as a sub-slice of the
// backing storage.
func (fs *FaceSet) Normal(f int) []float64 {
	return fs.Normals[f*fs.NDim : (f+1)*fs.NDim]
}
