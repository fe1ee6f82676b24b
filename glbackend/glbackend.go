// Package glbackend implements material.Backend on top of OpenGL 4.3 core
// entry points. gl.Init must have been called on the current context.
package glbackend

import (
	"runtime"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/adinfit/glmaterial/material"
)

var stageTypes = [...]uint32{
	material.StageVertex:  gl.VERTEX_SHADER,
	material.StagePixel:   gl.FRAGMENT_SHADER,
	material.StageCompute: gl.COMPUTE_SHADER,
}

// Backend issues material calls to the current OpenGL context.
type Backend struct {
	core    bool
	compute bool
}

// New describes the current context. core must match the profile the
// context was created with.
func New(core bool) *Backend {
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	return &Backend{
		core:    core,
		compute: computeAvailable(runtime.GOOS, major, minor),
	}
}

// computeAvailable reports whether a context of the given version exposes
// compute shaders. macOS stops at OpenGL 4.1.
func computeAvailable(goos string, major, minor int32) bool {
	if goos == "darwin" {
		return false
	}
	return major > 4 || (major == 4 && minor >= 3)
}

var _ material.Backend = (*Backend)(nil)

func (b *Backend) CreateShader(stage material.Stage) material.Handle {
	return material.Handle(gl.CreateShader(stageTypes[stage]))
}

func (b *Backend) CompileShader(shader material.Handle, source string) (bool, string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(uint32(shader), 1, csources, nil)
	free()
	gl.CompileShader(uint32(shader))

	var status int32
	gl.GetShaderiv(uint32(shader), gl.COMPILE_STATUS, &status)

	var logLength int32
	gl.GetShaderiv(uint32(shader), gl.INFO_LOG_LENGTH, &logLength)
	var log string
	if logLength > 1 {
		log = strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(uint32(shader), logLength, nil, gl.Str(log))
		log = strings.TrimRight(log, "\x00")
	}
	return status != gl.FALSE, log
}

func (b *Backend) DeleteShader(shader material.Handle) { gl.DeleteShader(uint32(shader)) }

func (b *Backend) CreateProgram() material.Handle { return material.Handle(gl.CreateProgram()) }

func (b *Backend) AttachShader(program, shader material.Handle) {
	gl.AttachShader(uint32(program), uint32(shader))
}

func (b *Backend) BindAttribLocation(program material.Handle, index uint32, name string) {
	gl.BindAttribLocation(uint32(program), index, gl.Str(name+"\x00"))
}

func (b *Backend) LinkProgram(program material.Handle) (bool, string) {
	gl.LinkProgram(uint32(program))

	var status int32
	gl.GetProgramiv(uint32(program), gl.LINK_STATUS, &status)
	if status != gl.FALSE {
		return true, ""
	}

	var logLength int32
	gl.GetProgramiv(uint32(program), gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(uint32(program), logLength, nil, gl.Str(log))
	return false, strings.TrimRight(log, "\x00")
}

func (b *Backend) DeleteProgram(program material.Handle) { gl.DeleteProgram(uint32(program)) }
func (b *Backend) UseProgram(program material.Handle)    { gl.UseProgram(uint32(program)) }

func (b *Backend) UniformLocation(program material.Handle, name string) int32 {
	return gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00"))
}

func (b *Backend) Uniform1i(location int32, value int32) { gl.Uniform1i(location, value) }

func (b *Backend) UniformFloats(location int32, components int, count int, values []float32) {
	switch components {
	case 1:
		gl.Uniform1fv(location, int32(count), &values[0])
	case 2:
		gl.Uniform2fv(location, int32(count), &values[0])
	case 3:
		gl.Uniform3fv(location, int32(count), &values[0])
	case 4:
		gl.Uniform4fv(location, int32(count), &values[0])
	}
}

func (b *Backend) UniformMatrix4(location int32, count int, values []float32) {
	gl.UniformMatrix4fv(location, int32(count), false, &values[0])
}

func (b *Backend) BindTexture(unit uint32, texture material.Handle) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, uint32(texture))
}

func blockTarget(kind material.BlockKind) uint32 {
	if kind == material.StorageBlock {
		return gl.SHADER_STORAGE_BUFFER
	}
	return gl.UNIFORM_BUFFER
}

func (b *Backend) BlockIndex(program material.Handle, kind material.BlockKind, name string) (uint32, bool) {
	if kind == material.StorageBlock && !b.compute {
		return 0, false
	}
	var index uint32
	if kind == material.StorageBlock {
		index = gl.GetProgramResourceIndex(uint32(program), gl.SHADER_STORAGE_BLOCK, gl.Str(name+"\x00"))
	} else {
		index = gl.GetUniformBlockIndex(uint32(program), gl.Str(name+"\x00"))
	}
	return index, index != gl.INVALID_INDEX
}

func (b *Backend) CreateBuffer(kind material.BlockKind, data []float32) material.Handle {
	target := blockTarget(kind)

	var buffer uint32
	gl.GenBuffers(1, &buffer)
	gl.BindBuffer(target, buffer)
	if len(data) > 0 {
		gl.BufferData(target, 4*len(data), gl.Ptr(data), gl.STATIC_DRAW)
	}
	gl.BindBuffer(target, 0)
	return material.Handle(buffer)
}

func (b *Backend) BindBufferBase(kind material.BlockKind, point uint32, buffer material.Handle) {
	gl.BindBufferBase(blockTarget(kind), point, uint32(buffer))
}

func (b *Backend) BlockBinding(program material.Handle, kind material.BlockKind, index, point uint32) {
	if kind == material.StorageBlock {
		gl.ShaderStorageBlockBinding(uint32(program), index, point)
		return
	}
	gl.UniformBlockBinding(uint32(program), index, point)
}

func (b *Backend) DispatchCompute(x, y, z uint32) {
	if b.compute {
		gl.DispatchCompute(x, y, z)
	}
}

func (b *Backend) MemoryBarrier() {
	if b.compute {
		gl.MemoryBarrier(gl.TEXTURE_FETCH_BARRIER_BIT | gl.VERTEX_ATTRIB_ARRAY_BARRIER_BIT)
	}
}

func (b *Backend) ShadingLanguageVersion() string {
	return gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))
}

func (b *Backend) CoreProfile() bool     { return b.core }
func (b *Backend) SupportsCompute() bool { return b.compute }
