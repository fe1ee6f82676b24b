package material

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/loov/hrtime"
)

// Fixed vertex attribute slots, bound by name before a graphics program
// links. Mesh uploaders use the same indices.
const (
	AttribPosition uint32 = iota
	AttribNormal
	AttribTexCoord
	AttribColor
	AttribWeights
	AttribIndices
)

var attribNames = [...]string{
	AttribPosition: "apos",
	AttribNormal:   "anormal",
	AttribTexCoord: "atc",
	AttribColor:    "acolor",
	AttribWeights:  "aweights",
	AttribIndices:  "aindices",
}

// LoadFunc reads a material file.
type LoadFunc func(path string) ([]byte, error)

// Compiler turns material text into linked programs and stores them in a
// Registry. A Compiler, its Registry and its Backend must only be used from
// the goroutine that owns the graphics context.
type Compiler struct {
	backend  Backend
	registry *Registry
	caps     Capabilities
	capsSet  bool
	load     LoadFunc
	log      *slog.Logger

	// bindingPoint is the last buffer binding point handed out.
	bindingPoint uint32
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCapabilities overrides the capabilities detected from the backend.
func WithCapabilities(caps Capabilities) Option {
	return func(c *Compiler) {
		c.caps = caps
		c.capsSet = true
	}
}

// WithLoader replaces the function used to read material files.
func WithLoader(load LoadFunc) Option {
	return func(c *Compiler) { c.load = load }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Compiler) { c.log = log }
}

// NewCompiler creates a compiler that registers programs into registry.
func NewCompiler(backend Backend, registry *Registry, opts ...Option) *Compiler {
	c := &Compiler{
		backend:  backend,
		registry: registry,
		load:     os.ReadFile,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.capsSet {
		c.caps = DetectCapabilities(backend)
	}
	if registry.log == nil {
		registry.log = c.log
	}
	return c
}

func (c *Compiler) Registry() *Registry        { return c.registry }
func (c *Compiler) Backend() Backend           { return c.backend }
func (c *Compiler) Capabilities() Capabilities { return c.caps }

// LoadMaterialFile reads path and parses it as material text.
func (c *Compiler) LoadMaterialFile(path string) error {
	data, err := c.load(path)
	if err != nil {
		return &Error{Kind: FileError, Message: "cannot load material file: " + path, Err: err}
	}
	return c.ParseMaterial(string(data))
}

// ParseMaterial parses material text, compiling and registering every SHADER
// block in order. It stops at the first error; shaders registered before
// the error stay registered.
func (c *Compiler) ParseMaterial(text string) error {
	state := &parseState{}
	s := newScanner(text)
	for s.nextLine() {
		keyword := s.word()
		if keyword == "" {
			continue
		}
		if err := c.parseLine(state, s, keyword); err != nil {
			return withShader(err, state.shader)
		}
	}
	return withShader(c.finalize(state), state.shader)
}

func withShader(err error, name string) error {
	var merr *Error
	if errors.As(err, &merr) && merr.Shader == "" {
		merr.Shader = name
	}
	return err
}

// finalize compiles the pending SHADER block, if any, and registers it.
func (c *Compiler) finalize(state *parseState) error {
	if state.shader == "" {
		return nil
	}
	name := state.shader

	sources, ok := state.assemble(c.caps)
	if !ok {
		c.log.Debug("material: nothing to compile", "shader", name)
		state.shader = ""
		return nil
	}

	sh, err := c.Compile(name, sources)
	if err != nil {
		return err
	}
	c.registry.register(sh)
	state.shader = ""
	return nil
}

// Compile builds a program from assembled sources without registering it.
func (c *Compiler) Compile(name string, sources Sources) (*Shader, error) {
	if sources.IsCompute() && !c.caps.Compute {
		return nil, newError(UnsupportedError, name, "compute shaders not supported")
	}

	start := hrtime.Now()
	b := c.backend
	sh := &Shader{
		Name:    name,
		backend: b,
		program: b.CreateProgram(),
		sources: sources,
	}

	var err error
	if sources.IsCompute() {
		sh.compute, err = c.compileStage(sh, StageCompute, sources.Compute)
		if err != nil {
			sh.Destroy()
			return nil, err
		}
	} else {
		sh.vertex, err = c.compileStage(sh, StageVertex, sources.Vertex)
		if err != nil {
			sh.Destroy()
			return nil, err
		}
		sh.pixel, err = c.compileStage(sh, StagePixel, sources.Pixel)
		if err != nil {
			sh.Destroy()
			return nil, err
		}
		for index, attrib := range attribNames {
			b.BindAttribLocation(sh.program, uint32(index), attrib)
		}
	}

	if err := c.link(sh); err != nil {
		sh.Destroy()
		return nil, err
	}

	c.log.Debug("material: compiled shader", "shader", name, "compute", sources.IsCompute(), "time", hrtime.Since(start))
	return sh, nil
}

func (c *Compiler) compileStage(sh *Shader, stage Stage, source string) (Handle, error) {
	b := c.backend
	obj := b.CreateShader(stage)
	ok, log := b.CompileShader(obj, source)
	if !ok {
		b.DeleteShader(obj)
		c.log.Debug("material: compile failed", "shader", sh.Name, "stage", stage)
		return 0, newError(CompileError, sh.Name, "couldn't compile %v shader: %s\n%s", stage, sh.Name, FormatDiagnostics(log, source))
	}
	b.AttachShader(sh.program, obj)
	return obj, nil
}

// link links the program and caches predefined uniform and sampler
// locations. Sampler uniforms are pointed at their texture unit once here.
func (c *Compiler) link(sh *Shader) error {
	b := c.backend
	ok, log := b.LinkProgram(sh.program)
	if !ok {
		msg := "linking failed for shader: " + sh.Name
		if log != "" {
			msg += "\n" + FormatDiagnostics(log, "")
		}
		return &Error{Kind: LinkError, Shader: sh.Name, Message: msg}
	}

	for sem := range sh.semantics {
		sh.semantics[sem] = b.UniformLocation(sh.program, Semantic(sem).Name())
	}

	b.UseProgram(sh.program)
	for unit := range sh.samplers {
		loc := b.UniformLocation(sh.program, SamplerName(unit))
		sh.samplers[unit] = loc
		if loc >= 0 {
			b.Uniform1i(loc, int32(unit))
		}
	}
	return nil
}

// FormatDiagnostics renders a backend log followed by source with 1-based
// line numbers, so that line references in the log can be looked up.
func FormatDiagnostics(log, source string) string {
	var b strings.Builder
	b.WriteString("GLSL ERROR: ")
	b.WriteString(log)
	if !strings.HasSuffix(log, "\n") {
		b.WriteByte('\n')
	}
	if source == "" {
		return b.String()
	}

	source = strings.TrimSuffix(source, "\n")
	for i, line := range strings.Split(source, "\n") {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(": ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// UniformBufferObject uploads data into a new buffer and attaches it to the
// named uniform block (or shader storage block when ssbo is set) of sh.
// It returns a zero handle when sh has no such block.
func (c *Compiler) UniformBufferObject(sh *Shader, data []float32, blockName string, ssbo bool) Handle {
	buffer, _ := c.UniformBufferBlock(sh, data, blockName, ssbo)
	return buffer
}

// UniformBufferBlock is UniformBufferObject that also returns the binding
// point the buffer was attached to, so a recompiled program can be pointed
// at the same buffer with BindBlock.
func (c *Compiler) UniformBufferBlock(sh *Shader, data []float32, blockName string, ssbo bool) (Handle, uint32) {
	kind := blockKind(ssbo)

	b := c.backend
	sh.Activate()
	index, ok := b.BlockIndex(sh.program, kind, blockName)
	if !ok {
		return 0, 0
	}

	buffer := b.CreateBuffer(kind, data)
	c.bindingPoint++
	b.BindBufferBase(kind, c.bindingPoint, buffer)
	b.BlockBinding(sh.program, kind, index, c.bindingPoint)
	c.log.Debug("material: bound buffer block", "shader", sh.Name, "block", blockName, "point", c.bindingPoint)
	return buffer, c.bindingPoint
}

// BindBlock points the named block of sh at a binding point that already
// has a buffer attached. It reports whether sh has the block.
func (c *Compiler) BindBlock(sh *Shader, blockName string, ssbo bool, point uint32) bool {
	kind := blockKind(ssbo)
	index, ok := c.backend.BlockIndex(sh.program, kind, blockName)
	if !ok {
		return false
	}
	c.backend.BlockBinding(sh.program, kind, index, point)
	c.log.Debug("material: rebound buffer block", "shader", sh.Name, "block", blockName, "point", point)
	return true
}

func blockKind(ssbo bool) BlockKind {
	if ssbo {
		return StorageBlock
	}
	return UniformBlock
}

// BindVBOAsSSBO exposes an existing vertex buffer to compute programs as a
// shader storage buffer at point.
func BindVBOAsSSBO(backend Backend, point uint32, vbo Handle) {
	backend.BindBufferBase(StorageBlock, point, vbo)
}

// DispatchCompute runs the active compute program and then waits for its
// image and buffer writes to become visible to texture fetches and vertex
// attribute reads. The barrier covers more than a single dispatch needs.
func DispatchCompute(backend Backend, x, y, z uint32) {
	backend.DispatchCompute(x, y, z)
	backend.MemoryBarrier()
}
