package material

// Handle is a backend object name (shader stage, program, buffer or texture).
// The zero Handle means "none" and is always safe to release.
type Handle uint32

// Stage is one unit of a shader program.
type Stage int

const (
	StageVertex Stage = iota
	StagePixel
	StageCompute
)

func (stage Stage) String() string {
	switch stage {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// BlockKind selects between uniform blocks and shader storage blocks.
type BlockKind int

const (
	UniformBlock BlockKind = iota
	StorageBlock
)

// Backend is the narrow set of graphics driver calls the compiler and the
// binding API need. Implementations must be used from a single goroutine
// that owns the graphics context.
type Backend interface {
	CreateShader(stage Stage) Handle
	// CompileShader submits source to the stage object and reports whether
	// it compiled; log holds the driver diagnostics either way.
	CompileShader(shader Handle, source string) (ok bool, log string)
	DeleteShader(shader Handle)

	CreateProgram() Handle
	AttachShader(program, shader Handle)
	BindAttribLocation(program Handle, index uint32, name string)
	LinkProgram(program Handle) (ok bool, log string)
	DeleteProgram(program Handle)
	UseProgram(program Handle)

	// UniformLocation returns -1 when the program has no active uniform name.
	UniformLocation(program Handle, name string) int32
	Uniform1i(location int32, value int32)
	// UniformFloats writes count elements of a vector uniform with the given
	// number of components (1..4).
	UniformFloats(location int32, components int, count int, values []float32)
	UniformMatrix4(location int32, count int, values []float32)
	BindTexture(unit uint32, texture Handle)

	// BlockIndex resolves a named uniform or storage block.
	BlockIndex(program Handle, kind BlockKind, name string) (index uint32, ok bool)
	CreateBuffer(kind BlockKind, data []float32) Handle
	BindBufferBase(kind BlockKind, point uint32, buffer Handle)
	BlockBinding(program Handle, kind BlockKind, index, point uint32)

	DispatchCompute(x, y, z uint32)
	// MemoryBarrier makes prior image and storage writes visible to texture
	// fetches and vertex attribute reads.
	MemoryBarrier()

	ShadingLanguageVersion() string
	CoreProfile() bool
	SupportsCompute() bool
}
