package fluid

import "fmt"

// Params is the flat, runtime-tunable parameter set. It is read every frame
// by the solver and the integrator and mutated in place through Set. Values
// are not range-checked.
type Params struct {
	ParticleCount      int     `yaml:"particle_count"`
	ParticleSize       float64 `yaml:"particle_size"`
	Gravity            float64 `yaml:"gravity"`
	GravityScale       float64 `yaml:"gravity_scale"`
	Damping            float64 `yaml:"damping"`
	GridSize           float64 `yaml:"grid_size"`
	BoxHeight          float64 `yaml:"box_height"`
	CollisionThreshold float64 `yaml:"collision_threshold"`
	SmoothingLength    float64 `yaml:"smoothing_length"`
	ParticleMass       float64 `yaml:"particle_mass"`
	RestDensity        float64 `yaml:"rest_density"`
	GasConstant        float64 `yaml:"gas_constant"`
	Viscosity          float64 `yaml:"viscosity"`
	ViscosityLaplacian bool    `yaml:"viscosity_laplacian"`
	SurfaceTension     float64 `yaml:"surface_tension"`
	PressureScale      float64 `yaml:"pressure_scale"`
	TimeStep           float64 `yaml:"time_step"`
	SubSteps           int     `yaml:"sub_steps"`
	MaxVelocity        float64 `yaml:"max_velocity"`
	BoundaryDamping    float64 `yaml:"boundary_damping"`
	InteractionRadius  float64 `yaml:"interaction_radius"`
	InteractionForce   float64 `yaml:"interaction_force"`
	SourceRate         float64 `yaml:"source_rate"`
	SourceJitter       float64 `yaml:"source_jitter"`
	WaveAmplitude      float64 `yaml:"wave_amplitude"`
	WaveFrequency      float64 `yaml:"wave_frequency"`
	WhirlpoolStrength  float64 `yaml:"whirlpool_strength"`
}

// DefaultParams returns the parameter set a new world starts with.
func DefaultParams() Params {
	return Params{
		ParticleCount:      800,
		ParticleSize:       0.1,
		Gravity:            9.81,
		GravityScale:       1.0,
		Damping:            0.6,
		GridSize:           8.0,
		BoxHeight:          8.0,
		CollisionThreshold: 0.05,
		SmoothingLength:    0.5,
		ParticleMass:       1.0,
		RestDensity:        25.0,
		GasConstant:        2.0,
		Viscosity:          0.1,
		SurfaceTension:     0.05,
		PressureScale:      3.0,
		TimeStep:           1.0 / 60.0,
		SubSteps:           2,
		MaxVelocity:        10.0,
		BoundaryDamping:    0.5,
		InteractionRadius:  1.5,
		InteractionForce:   4.0,
		SourceRate:         20.0,
		SourceJitter:       0.05,
		WaveAmplitude:      0.3,
		WaveFrequency:      2.0,
		WhirlpoolStrength:  6.0,
	}
}

var paramNames = []string{
	"particleCount", "particleSize", "gravity", "gravityScale", "damping",
	"gridSize", "boxHeight", "collisionThreshold", "smoothingLength",
	"particleMass", "restDensity", "gasConstant", "viscosity",
	"viscosityLaplacian", "surfaceTension", "pressureScale", "timeStep",
	"subSteps", "maxVelocity", "boundaryDamping", "interactionRadius",
	"interactionForce", "sourceRate", "sourceJitter", "waveAmplitude",
	"waveFrequency", "whirlpoolStrength",
}

// ParamNames lists every settable parameter name in a stable order.
func ParamNames() []string {
	names := make([]string, len(paramNames))
	copy(names, paramNames)
	return names
}

// float returns a pointer to the float64 field called name, or nil.
func (p *Params) float(name string) *float64 {
	switch name {
	case "particleSize":
		return &p.ParticleSize
	case "gravity":
		return &p.Gravity
	case "gravityScale":
		return &p.GravityScale
	case "damping":
		return &p.Damping
	case "gridSize":
		return &p.GridSize
	case "boxHeight":
		return &p.BoxHeight
	case "collisionThreshold":
		return &p.CollisionThreshold
	case "smoothingLength":
		return &p.SmoothingLength
	case "particleMass":
		return &p.ParticleMass
	case "restDensity":
		return &p.RestDensity
	case "gasConstant":
		return &p.GasConstant
	case "viscosity":
		return &p.Viscosity
	case "surfaceTension":
		return &p.SurfaceTension
	case "pressureScale":
		return &p.PressureScale
	case "timeStep":
		return &p.TimeStep
	case "maxVelocity":
		return &p.MaxVelocity
	case "boundaryDamping":
		return &p.BoundaryDamping
	case "interactionRadius":
		return &p.InteractionRadius
	case "interactionForce":
		return &p.InteractionForce
	case "sourceRate":
		return &p.SourceRate
	case "sourceJitter":
		return &p.SourceJitter
	case "waveAmplitude":
		return &p.WaveAmplitude
	case "waveFrequency":
		return &p.WaveFrequency
	case "whirlpoolStrength":
		return &p.WhirlpoolStrength
	}
	return nil
}

// Get returns the current value of a named parameter.
func (p *Params) Get(name string) (float64, error) {
	switch name {
	case "particleCount":
		return float64(p.ParticleCount), nil
	case "subSteps":
		return float64(p.SubSteps), nil
	case "viscosityLaplacian":
		if p.ViscosityLaplacian {
			return 1, nil
		}
		return 0, nil
	}
	if f := p.float(name); f != nil {
		return *f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// Set assigns a named parameter. Integer parameters are truncated and
// viscosityLaplacian is true for any non-zero value.
func (p *Params) Set(name string, v float64) error {
	switch name {
	case "particleCount":
		p.ParticleCount = int(v)
		return nil
	case "subSteps":
		p.SubSteps = int(v)
		return nil
	case "viscosityLaplacian":
		p.ViscosityLaplacian = v != 0
		return nil
	}
	f := p.float(name)
	if f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	*f = v
	return nil
}

// Map returns every parameter keyed by name.
func (p *Params) Map() map[string]float64 {
	m := make(map[string]float64, len(paramNames))
	for _, name := range paramNames {
		v, _ := p.Get(name)
		m[name] = v
	}
	return m
}

// subSteps never lets the integrator run fewer than two inner iterations.
func (p *Params) subSteps() int {
	if p.SubSteps < 2 {
		return 2
	}
	return p.SubSteps
}
