package numerics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcalc/FVKernel/ad"
	"github.com/fluxcalc/FVKernel/config"
)

// faceInputs is one face's worth of kernel inputs for tests.
type faceInputs struct {
	normal           []float64
	velI, velJ       []float64
	rhoI, rhoJ       float64
	scalarI, scalarJ []float64
	gridVelI         []float64
	gridVelJ         []float64
}

// setFace populates a computer's context from faceInputs, building primitive
// buffers with the standard layout.
func setFace(s *ScalarUpwind, in faceInputs) (primI, primJ []float64) {
	nDim := s.NDim()
	primI = make([]float64, nDim+3)
	primJ = make([]float64, nDim+3)
	copy(primI[PrimVelOffset:], in.velI)
	copy(primJ[PrimVelOffset:], in.velJ)
	primI[PrimDensityOffset(nDim)] = in.rhoI
	primJ[PrimDensityOffset(nDim)] = in.rhoJ

	ctx := s.Ctx()
	ctx.SetNormal(in.normal)
	ctx.SetPrimitive(primI, primJ)
	ctx.SetScalarVar(in.scalarI, in.scalarJ)
	if in.gridVelI != nil {
		ctx.SetGridVel(in.gridVelI, in.gridVelJ)
	}
	return
}

func newTestComputer(t *testing.T, nDim, nVar int, cfg *config.Config, model ScalarModel) (*ScalarUpwind, *ad.Tape) {
	t.Helper()
	tape := ad.NewTape()
	s, err := NewScalarUpwind(nDim, nVar, cfg, model, tape)
	require.NoError(t, err)
	return s, tape
}

func implicitConfig(nDim, nVar int) *config.Config {
	return &config.Config{NDim: nDim, NVar: nVar, TimeScheme: config.EulerImplicit}
}

func TestConstructionErrors(t *testing.T) {
	cfg := implicitConfig(2, 1)

	_, err := NewScalarUpwind(2, 0, cfg, TurbSA{}, nil)
	assert.Error(t, err, "zero variables")

	_, err = NewScalarUpwind(1, 1, cfg, TurbSA{}, nil)
	assert.Error(t, err, "unsupported dimensionality")

	_, err = NewScalarUpwind(2, 1, cfg, nil, nil)
	assert.Error(t, err, "missing model")

	s, err := NewScalarUpwind(2, 1, cfg, TurbSA{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.NDim())
	assert.Equal(t, 1, s.NVar())
	assert.True(t, s.Implicit())
}

// TestUpwindSwitch checks a0 >= 0, a1 <= 0 and a0 + a1 == q_ij exactly, over
// both flow directions and zero flow. With the SA model the Jacobian
// diagonals expose a0 and a1 directly.
func TestUpwindSwitch(t *testing.T) {
	tests := []struct {
		name       string
		velI, velJ []float64
		qij        float64
	}{
		{"ForwardFlow", []float64{2, 0}, []float64{4, 0}, 3},
		{"ReverseFlow", []float64{-4, 0}, []float64{-2, 0}, -3},
		{"ZeroFlow", []float64{1, 5}, []float64{-1, 5}, 0},
		{"ObliqueNormalIgnored", []float64{0, 3}, []float64{0, 7}, 0},
	}

	cfg := implicitConfig(2, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestComputer(t, 2, 1, cfg, TurbSA{})
			setFace(s, faceInputs{
				normal:  []float64{1, 0},
				velI:    tt.velI,
				velJ:    tt.velJ,
				rhoI:    1, rhoJ: 1,
				scalarI: []float64{1}, scalarJ: []float64{1},
			})
			res := s.ComputeResidual(cfg)

			a0 := res.JacobianI.At(0, 0)
			a1 := res.JacobianJ.At(0, 0)
			assert.GreaterOrEqual(t, a0, 0.0)
			assert.LessOrEqual(t, a1, 0.0)
			assert.Equal(t, tt.qij, a0+a1, "a0+a1 must equal q_ij exactly")
		})
	}
}

// TestChannelScenario is the 2D worked example: normal [1,0], mean normal
// velocity 3, so the flux is 3 times the upwind-side scalar.
func TestChannelScenario(t *testing.T) {
	cfg := implicitConfig(2, 1)

	t.Run("ForwardFlow", func(t *testing.T) {
		s, _ := newTestComputer(t, 2, 1, cfg, TurbSA{})
		setFace(s, faceInputs{
			normal:  []float64{1, 0},
			velI:    []float64{2, 0},
			velJ:    []float64{4, 0},
			rhoI:    1, rhoJ: 1,
			scalarI: []float64{0.7}, scalarJ: []float64{0.2},
		})
		res := s.ComputeResidual(cfg)

		assert.InDelta(t, 3*0.7, res.Flux[0], 1e-15, "flux depends only on the i side")
		assert.Equal(t, 3.0, res.JacobianI.At(0, 0))
		assert.Equal(t, 0.0, res.JacobianJ.At(0, 0))
	})

	t.Run("ReverseFlow", func(t *testing.T) {
		s, _ := newTestComputer(t, 2, 1, cfg, TurbSA{})
		setFace(s, faceInputs{
			normal:  []float64{1, 0},
			velI:    []float64{-4, 0},
			velJ:    []float64{-2, 0},
			rhoI:    1, rhoJ: 1,
			scalarI: []float64{0.7}, scalarJ: []float64{0.2},
		})
		res := s.ComputeResidual(cfg)

		assert.InDelta(t, -3*0.2, res.Flux[0], 1e-15, "flux depends only on the j side")
		assert.Equal(t, 0.0, res.JacobianI.At(0, 0))
		assert.Equal(t, -3.0, res.JacobianJ.At(0, 0))
	})
}

func TestZeroFlowFluxVanishes(t *testing.T) {
	cfg := implicitConfig(3, 2)
	s, _ := newTestComputer(t, 3, 2, cfg, TurbSST{})
	setFace(s, faceInputs{
		normal:  []float64{0.3, -1.2, 0.5},
		velI:    []float64{0, 0, 0},
		velJ:    []float64{0, 0, 0},
		rhoI:    1.2, rhoJ: 0.9,
		scalarI: []float64{4, 5}, scalarJ: []float64{6, 7},
	})
	res := s.ComputeResidual(cfg)

	for k := 0; k < 2; k++ {
		assert.Zero(t, res.Flux[k])
		for l := 0; l < 2; l++ {
			assert.Zero(t, res.JacobianI.At(k, l))
			assert.Zero(t, res.JacobianJ.At(k, l))
		}
	}
}

// TestAntisymmetry verifies that swapping the two sides together with a
// normal sign flip negates the flux.
func TestAntisymmetry(t *testing.T) {
	models := map[string]ScalarModel{
		"SA":      TurbSA{},
		"SST":     TurbSST{},
		"Species": Species{},
	}
	nVar := map[string]int{"SA": 1, "SST": 2, "Species": 2}

	for name, model := range models {
		t.Run(name, func(t *testing.T) {
			nv := nVar[name]
			cfg := implicitConfig(3, nv)

			in := faceInputs{
				normal:  []float64{0.4, -0.3, 1.1},
				velI:    []float64{1.5, -2.0, 0.25},
				velJ:    []float64{0.5, 1.0, -0.75},
				rhoI:    1.3, rhoJ: 0.8,
				scalarI: []float64{0.9, 0.1}[:nv],
				scalarJ: []float64{0.2, 0.6}[:nv],
			}
			sFwd, _ := newTestComputer(t, 3, nv, cfg, model)
			setFace(sFwd, in)
			fwd := sFwd.ComputeResidual(cfg)

			swapped := faceInputs{
				normal:  []float64{-0.4, 0.3, -1.1},
				velI:    in.velJ,
				velJ:    in.velI,
				rhoI:    in.rhoJ, rhoJ: in.rhoI,
				scalarI: in.scalarJ, scalarJ: in.scalarI,
			}
			sRev, _ := newTestComputer(t, 3, nv, cfg, model)
			setFace(sRev, swapped)
			rev := sRev.ComputeResidual(cfg)

			for k := 0; k < nv; k++ {
				assert.InDelta(t, -fwd.Flux[k], rev.Flux[k], 1e-14)
			}
		})
	}
}

func TestMovingGridUsesRelativeVelocity(t *testing.T) {
	cfg := &config.Config{
		NDim: 2, NVar: 1,
		TimeScheme:  config.EulerImplicit,
		DynamicGrid: true,
	}
	s, _ := newTestComputer(t, 2, 1, cfg, TurbSA{})
	setFace(s, faceInputs{
		normal:  []float64{1, 0},
		velI:    []float64{2, 0},
		velJ:    []float64{4, 0},
		rhoI:    1, rhoJ: 1,
		scalarI: []float64{1}, scalarJ: []float64{0},
		gridVelI: []float64{1, 0},
		gridVelJ: []float64{1, 0},
	})
	res := s.ComputeResidual(cfg)

	// Mean relative normal speed is (1+3)/2 = 2.
	assert.InDelta(t, 2.0, res.Flux[0], 1e-15)
}

// TestBufferReuseStability checks that repeated calls with identical inputs
// are bit-identical and that the returned view aliases the computer's
// buffers across calls.
func TestBufferReuseStability(t *testing.T) {
	cfg := implicitConfig(2, 2)
	s, _ := newTestComputer(t, 2, 2, cfg, TurbSST{})

	in := faceInputs{
		normal:  []float64{0.8, 0.6},
		velI:    []float64{3, -1},
		velJ:    []float64{2, 2},
		rhoI:    1.1, rhoJ: 1.4,
		scalarI: []float64{0.5, 0.25}, scalarJ: []float64{0.75, 0.125},
	}
	setFace(s, in)
	first := s.ComputeResidual(cfg)
	flux0 := append([]float64(nil), first.Flux...)

	setFace(s, in)
	second := s.ComputeResidual(cfg)
	assert.Equal(t, flux0, second.Flux, "identical inputs must reproduce bit-identical results")

	// The view is reused storage, not a copy.
	assert.Same(t, &first.Flux[0], &second.Flux[0])

	// A call with different inputs overwrites the previous view.
	in.scalarI = []float64{5, 5}
	setFace(s, in)
	s.ComputeResidual(cfg)
	assert.NotEqual(t, flux0, first.Flux)
}

// TestTapeBracketing checks that each call opens exactly one window and
// registers the generic inputs, the model extras, and the flux output.
func TestTapeBracketing(t *testing.T) {
	t.Run("StaticGridSA", func(t *testing.T) {
		cfg := implicitConfig(2, 1)
		s, tape := newTestComputer(t, 2, 1, cfg, TurbSA{})
		setFace(s, faceInputs{
			normal:  []float64{1, 0},
			velI:    []float64{2, 0},
			velJ:    []float64{4, 0},
			rhoI:    1, rhoJ: 1,
			scalarI: []float64{1}, scalarJ: []float64{2},
		})
		s.ComputeResidual(cfg)

		assert.Equal(t, 1, tape.Windows())
		// normal(2) + scalars(1+1) + SA extras: nDim+1 primitives per side.
		assert.Equal(t, 2+1+1+3+3, tape.NumInputValues())
		assert.Equal(t, 1, tape.NumOutputValues())

		s.ComputeResidual(cfg)
		assert.Equal(t, 2, tape.Windows())
	})

	t.Run("MovingGridSpecies", func(t *testing.T) {
		cfg := &config.Config{
			NDim: 3, NVar: 2,
			TimeScheme:  config.EulerImplicit,
			DynamicGrid: true,
		}
		s, tape := newTestComputer(t, 3, 2, cfg, Species{})
		setFace(s, faceInputs{
			normal:  []float64{1, 0, 0},
			velI:    []float64{1, 0, 0},
			velJ:    []float64{1, 0, 0},
			rhoI:    1, rhoJ: 1,
			scalarI: []float64{1, 2}, scalarJ: []float64{3, 4},
			gridVelI: []float64{0, 0, 0},
			gridVelJ: []float64{0, 0, 0},
		})
		s.ComputeResidual(cfg)

		assert.Equal(t, 1, tape.Windows())
		// normal(3) + scalars(2+2) + grid velocities(3+3) + densities(2).
		assert.Equal(t, 3+2+2+3+3+2, tape.NumInputValues())
		assert.Equal(t, 2, tape.NumOutputValues())
	})
}
