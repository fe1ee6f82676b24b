package material

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Shader is a linked program together with the backend objects it owns and
// the uniform locations cached when it linked. A program has either vertex
// and pixel stages or a single compute stage.
type Shader struct {
	Name string

	backend Backend
	program Handle
	vertex  Handle
	pixel   Handle
	compute Handle

	semantics [semanticCount]int32
	samplers  [MaxSamplers]int32

	sources Sources
	scratch []float32
}

// Light is one light source as seen by the predefined light uniforms.
type Light struct {
	Position mgl32.Vec3
	Params   mgl32.Vec2
}

// Frame holds the values written to the predefined per-draw uniforms.
type Frame struct {
	Transform  mgl32.Mat4
	Color      mgl32.Vec4
	Camera     mgl32.Vec3
	PointScale float32
	// Lights are ordered by priority. Only the first one reaches the
	// predefined light1 and lightparams1 uniforms.
	Lights []Light
}

// Bone is an affine bone transform stored as three rows of four.
type Bone [3]mgl32.Vec4

func (sh *Shader) Program() Handle  { return sh.program }
func (sh *Shader) Sources() Sources { return sh.sources }
func (sh *Shader) IsCompute() bool  { return sh.compute != 0 }

// Location returns the cached location of a predefined uniform, -1 when the
// program does not use it.
func (sh *Shader) Location(sem Semantic) int32 {
	if sem < 0 || sem >= semanticCount {
		return -1
	}
	return sh.semantics[sem]
}

// SamplerLocation returns the cached location of texN, -1 when unused.
func (sh *Shader) SamplerLocation(unit int) int32 {
	if unit < 0 || unit >= MaxSamplers {
		return -1
	}
	return sh.samplers[unit]
}

// Activate makes sh the current program.
func (sh *Shader) Activate() { sh.backend.UseProgram(sh.program) }

// End clears the current program.
func (sh *Shader) End() { sh.backend.UseProgram(0) }

// SetFrame activates sh and writes every predefined uniform it uses.
func (sh *Shader) SetFrame(frame *Frame) {
	sh.Activate()

	b := sh.backend
	if loc := sh.semantics[SemanticTransform]; loc >= 0 {
		b.UniformMatrix4(loc, 1, frame.Transform[:])
	}
	if loc := sh.semantics[SemanticColor]; loc >= 0 {
		b.UniformFloats(loc, 4, 1, frame.Color[:])
	}
	if loc := sh.semantics[SemanticCamera]; loc >= 0 {
		b.UniformFloats(loc, 3, 1, frame.Camera[:])
	}
	if loc := sh.semantics[SemanticPointScale]; loc >= 0 {
		sh.scratch = append(sh.scratch[:0], frame.PointScale)
		b.UniformFloats(loc, 1, 1, sh.scratch)
	}

	if len(frame.Lights) > 0 {
		light := frame.Lights[0]
		if loc := sh.semantics[SemanticLight1]; loc >= 0 {
			b.UniformFloats(loc, 3, 1, light.Position[:])
		}
		if loc := sh.semantics[SemanticLightParams1]; loc >= 0 {
			b.UniformFloats(loc, 2, 1, light.Params[:])
		}
	}
}

// SetSkinning uploads bone transforms to the bones uniform. The caller must
// keep len(bones) within MaxBones; it is not checked here.
func (sh *Shader) SetSkinning(bones []Bone) {
	loc := sh.semantics[SemanticBones]
	if loc < 0 || len(bones) == 0 {
		return
	}
	sh.scratch = sh.scratch[:0]
	for _, bone := range bones {
		for _, row := range bone {
			sh.scratch = append(sh.scratch, row[:]...)
		}
	}
	sh.backend.UniformFloats(loc, 4, len(bones)*3, sh.scratch)
}

// SetTextures binds textures[i] to unit i for every sampler the program uses.
func (sh *Shader) SetTextures(textures *[MaxSamplers]Handle) {
	for unit, loc := range sh.samplers {
		if loc >= 0 {
			sh.backend.BindTexture(uint32(unit), textures[unit])
		}
	}
}

// SetUniform writes a uniform that is not one of the predefined ones. The
// location is looked up on every call. It reports whether the uniform was
// written; components must be 1..4 and values must hold components*elements
// floats.
func (sh *Shader) SetUniform(name string, values []float32, components, elements int) bool {
	if components < 1 || components > 4 || elements < 1 || len(values) < components*elements {
		return false
	}
	loc := sh.backend.UniformLocation(sh.program, name)
	if loc < 0 {
		return false
	}
	sh.backend.UniformFloats(loc, components, elements, values)
	return true
}

// Destroy releases every backend object owned by sh.
func (sh *Shader) Destroy() {
	b := sh.backend
	if sh.program != 0 {
		b.DeleteProgram(sh.program)
		sh.program = 0
	}
	for _, stage := range []*Handle{&sh.pixel, &sh.vertex, &sh.compute} {
		if *stage != 0 {
			b.DeleteShader(*stage)
			*stage = 0
		}
	}
}
