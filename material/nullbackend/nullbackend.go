// Package nullbackend implements material.Backend in memory. It accepts any
// source unless told otherwise and records what the compiler did, which makes
// it useful for tests and for checking material files without a GPU.
package nullbackend

import (
	"regexp"
	"strings"

	"github.com/adinfit/glmaterial/material"
)

// Backend is an in-memory material.Backend.
type Backend struct {
	// Version is reported as the shading language version.
	Version string
	Core    bool
	Compute bool

	// CompileError, when set, is consulted for every stage. A non-empty
	// result fails the compile with that log.
	CompileError func(stage material.Stage, source string) string
	// LinkError, when non-empty, fails every link with that log.
	LinkError string

	next     material.Handle
	Shaders  map[material.Handle]*ShaderObject
	Programs map[material.Handle]*ProgramObject
	Buffers  map[material.Handle][]float32

	// Current is the program last passed to UseProgram.
	Current material.Handle
	// Uniforms records the last value written to each uniform location.
	Uniforms map[int32][]float32
	// Textures records the texture bound to each unit.
	Textures map[uint32]material.Handle
	// BufferBindings records the buffer bound to each binding point.
	BufferBindings map[uint32]material.Handle
	Dispatches     [][3]uint32
	Barriers       int
	Deleted        []material.Handle

	locations map[uniformKey]int32
	names     map[int32]string
}

type uniformKey struct {
	program material.Handle
	name    string
}

type ShaderObject struct {
	Stage    material.Stage
	Source   string
	Compiled bool
}

type ProgramObject struct {
	Shaders  []material.Handle
	Attribs  map[string]uint32
	Linked   bool
	Blocks   map[string]uint32
	Bindings map[uint32]uint32
}

// New returns a backend that reports a desktop 4.30 compatibility context
// with compute support.
func New() *Backend {
	return &Backend{
		Version:        "4.30",
		Compute:        true,
		Shaders:        make(map[material.Handle]*ShaderObject),
		Programs:       make(map[material.Handle]*ProgramObject),
		Buffers:        make(map[material.Handle][]float32),
		Uniforms:       make(map[int32][]float32),
		Textures:       make(map[uint32]material.Handle),
		BufferBindings: make(map[uint32]material.Handle),
		locations:      make(map[uniformKey]int32),
		names:          make(map[int32]string),
	}
}

var _ material.Backend = (*Backend)(nil)

func (b *Backend) handle() material.Handle {
	b.next++
	return b.next
}

func (b *Backend) CreateShader(stage material.Stage) material.Handle {
	h := b.handle()
	b.Shaders[h] = &ShaderObject{Stage: stage}
	return h
}

func (b *Backend) CompileShader(shader material.Handle, source string) (bool, string) {
	obj := b.Shaders[shader]
	obj.Source = source
	if b.CompileError != nil {
		if log := b.CompileError(obj.Stage, source); log != "" {
			return false, log
		}
	}
	obj.Compiled = true
	return true, ""
}

func (b *Backend) DeleteShader(shader material.Handle) {
	delete(b.Shaders, shader)
	b.Deleted = append(b.Deleted, shader)
}

func (b *Backend) CreateProgram() material.Handle {
	h := b.handle()
	b.Programs[h] = &ProgramObject{
		Attribs:  make(map[string]uint32),
		Blocks:   make(map[string]uint32),
		Bindings: make(map[uint32]uint32),
	}
	return h
}

func (b *Backend) AttachShader(program, shader material.Handle) {
	p := b.Programs[program]
	p.Shaders = append(p.Shaders, shader)
}

func (b *Backend) BindAttribLocation(program material.Handle, index uint32, name string) {
	b.Programs[program].Attribs[name] = index
}

func (b *Backend) LinkProgram(program material.Handle) (bool, string) {
	if b.LinkError != "" {
		return false, b.LinkError
	}
	p := b.Programs[program]
	p.Linked = true

	var index uint32
	for _, src := range b.programSources(program) {
		for _, m := range blockPattern.FindAllStringSubmatch(src, -1) {
			if _, ok := p.Blocks[m[1]]; !ok {
				p.Blocks[m[1]] = index
				index++
			}
		}
	}
	return true, ""
}

func (b *Backend) DeleteProgram(program material.Handle) {
	delete(b.Programs, program)
	b.Deleted = append(b.Deleted, program)
}

func (b *Backend) UseProgram(program material.Handle) { b.Current = program }

func (b *Backend) programSources(program material.Handle) []string {
	p, ok := b.Programs[program]
	if !ok {
		return nil
	}
	var sources []string
	for _, sh := range p.Shaders {
		if obj, ok := b.Shaders[sh]; ok {
			sources = append(sources, obj.Source)
		}
	}
	return sources
}

var blockPattern = regexp.MustCompile(`(?m)^\s*(?:layout\([^)]*\)\s*)?(?:uniform|buffer)\s+(\w+)\s*\{`)

// UniformLocation finds uniforms declared in any source attached to program.
// Locations are unique per program and name.
func (b *Backend) UniformLocation(program material.Handle, name string) int32 {
	p, ok := b.Programs[program]
	if !ok || !p.Linked {
		return -1
	}
	key := uniformKey{program, name}
	if loc, ok := b.locations[key]; ok {
		return loc
	}
	for _, src := range b.programSources(program) {
		for _, line := range strings.Split(src, "\n") {
			if declaresUniform(line, name) {
				loc := int32(len(b.names))
				b.locations[key] = loc
				b.names[loc] = name
				return loc
			}
		}
	}
	return -1
}

func declaresUniform(line, name string) bool {
	fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(line), ";"))
	if len(fields) < 3 {
		return false
	}
	for i, f := range fields {
		if f != "uniform" || i+2 >= len(fields) {
			continue
		}
		decl := fields[i+2]
		if bracket := strings.IndexByte(decl, '['); bracket >= 0 {
			decl = decl[:bracket]
		}
		return decl == name
	}
	return false
}

// LocationName returns the uniform name a location was handed out for.
func (b *Backend) LocationName(loc int32) string { return b.names[loc] }

// Location returns the location handed out for name in program, -1 if none.
func (b *Backend) Location(program material.Handle, name string) int32 {
	if loc, ok := b.locations[uniformKey{program, name}]; ok {
		return loc
	}
	return -1
}

func (b *Backend) Uniform1i(location int32, value int32) {
	b.Uniforms[location] = []float32{float32(value)}
}

func (b *Backend) UniformFloats(location int32, components int, count int, values []float32) {
	b.Uniforms[location] = append([]float32(nil), values[:components*count]...)
}

func (b *Backend) UniformMatrix4(location int32, count int, values []float32) {
	b.Uniforms[location] = append([]float32(nil), values[:16*count]...)
}

func (b *Backend) BindTexture(unit uint32, texture material.Handle) {
	b.Textures[unit] = texture
}

func (b *Backend) BlockIndex(program material.Handle, kind material.BlockKind, name string) (uint32, bool) {
	p, ok := b.Programs[program]
	if !ok {
		return 0, false
	}
	index, ok := p.Blocks[name]
	return index, ok
}

func (b *Backend) CreateBuffer(kind material.BlockKind, data []float32) material.Handle {
	h := b.handle()
	b.Buffers[h] = append([]float32(nil), data...)
	return h
}

func (b *Backend) BindBufferBase(kind material.BlockKind, point uint32, buffer material.Handle) {
	b.BufferBindings[point] = buffer
}

func (b *Backend) BlockBinding(program material.Handle, kind material.BlockKind, index, point uint32) {
	b.Programs[program].Bindings[index] = point
}

func (b *Backend) DispatchCompute(x, y, z uint32) {
	b.Dispatches = append(b.Dispatches, [3]uint32{x, y, z})
}

func (b *Backend) MemoryBarrier() { b.Barriers++ }

func (b *Backend) ShadingLanguageVersion() string { return b.Version }
func (b *Backend) CoreProfile() bool              { return b.Core }
func (b *Backend) SupportsCompute() bool          { return b.Compute }
