package main

import (
	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/adinfit/glmaterial/material"
)

// Mesh is MeshData uploaded to the GPU. Attributes are bound to the fixed
// slots the material compiler assigns, so any compiled shader can draw it.
type Mesh struct {
	VAO uint32
	VBO uint32
	IBO uint32

	Count int32
	Data  MeshData
}

func UploadMesh(data MeshData) *Mesh {
	mesh := &Mesh{Data: data, Count: int32(len(data.Indices))}

	gl.GenVertexArrays(1, &mesh.VAO)
	gl.BindVertexArray(mesh.VAO)

	gl.GenBuffers(1, &mesh.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, mesh.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*4, gl.Ptr(data.Vertices), gl.STATIC_DRAW)

	attrib(material.AttribPosition, 3, 0)
	attrib(material.AttribNormal, 3, 3)
	attrib(material.AttribTexCoord, 2, 6)
	attrib(material.AttribColor, 4, 8)

	gl.GenBuffers(1, &mesh.IBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mesh.IBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, 2*len(data.Indices), gl.Ptr(data.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return mesh
}

func attrib(slot uint32, components int32, offsetFloats int) {
	gl.EnableVertexAttribArray(slot)
	gl.VertexAttribPointer(slot, components, gl.FLOAT, false, MeshVertexBytes, gl.PtrOffset(offsetFloats*4))
}

func (mesh *Mesh) Draw() {
	gl.BindVertexArray(mesh.VAO)
	gl.DrawElements(gl.TRIANGLES, mesh.Count, gl.UNSIGNED_SHORT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

func (mesh *Mesh) Destroy() {
	gl.DeleteBuffers(1, &mesh.IBO)
	gl.DeleteBuffers(1, &mesh.VBO)
	gl.DeleteVertexArrays(1, &mesh.VAO)
	*mesh = Mesh{}
}
