package main

import (
	"fmt"

	"github.com/adinfit/glmaterial/material"
)

// ComputeGroupSize is the local size the mesh compute shaders declare.
const ComputeGroupSize = 64

// ComputePass dispatches a compute shader over the mesh vertex buffer.
// The shader sees the vertices as storage block 0 and the vertex count in
// its MeshInfo uniform block.
type ComputePass struct {
	compiler *material.Compiler
	name     string

	info    material.Handle
	point   uint32
	program material.Handle
	time    [1]float32
}

// NewComputePass uploads the MeshInfo block for the named compute shader.
func NewComputePass(compiler *material.Compiler, name string, vertexCount int) (*ComputePass, error) {
	sh, ok := compiler.Registry().Get(name)
	if !ok || !sh.IsCompute() {
		return nil, fmt.Errorf("compute shader %q not found", name)
	}

	pass := &ComputePass{compiler: compiler, name: name, program: sh.Program()}
	pass.info, pass.point = compiler.UniformBufferBlock(sh, []float32{float32(vertexCount)}, "MeshInfo", false)
	return pass, nil
}

// Shader returns the current program registered under the pass name. A
// program replaced by a reload is pointed at the existing MeshInfo buffer.
func (pass *ComputePass) Shader() (*material.Shader, bool) {
	sh, ok := pass.compiler.Registry().Get(pass.name)
	if !ok || !sh.IsCompute() {
		return nil, false
	}
	if sh.Program() != pass.program {
		pass.program = sh.Program()
		if pass.info != 0 {
			pass.compiler.BindBlock(sh, "MeshInfo", false, pass.point)
		}
	}
	return sh, true
}

// Run dispatches one group per ComputeGroupSize vertices of vbo.
func (pass *ComputePass) Run(vbo material.Handle, vertexCount int, time float64) bool {
	sh, ok := pass.Shader()
	if !ok {
		return false
	}

	backend := pass.compiler.Backend()
	sh.Activate()
	pass.time[0] = float32(time)
	sh.SetUniform("time", pass.time[:], 1, 1)
	material.BindVBOAsSSBO(backend, 0, vbo)
	groups := (uint32(vertexCount) + ComputeGroupSize - 1) / ComputeGroupSize
	material.DispatchCompute(backend, groups, 1, 1)
	return true
}
