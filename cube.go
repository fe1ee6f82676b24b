package main

import (
	"math"

	m "github.com/go-gl/mathgl/mgl32"
)

// MeshData is an indexed triangle list. Every vertex is MeshVertexFloats
// floats: position, normal, texture coordinate and color.
type MeshData struct {
	Vertices []float32
	Indices  []uint16
}

const (
	MeshVertexFloats = 3 + 3 + 2 + 4
	MeshVertexBytes  = MeshVertexFloats * 4
)

func (mesh *MeshData) VertexCount() int { return len(mesh.Vertices) / MeshVertexFloats }

func (mesh *MeshData) Vertex(v m.Vec3, color m.Vec4) uint16 {
	p := mesh.VertexCount()
	mesh.Vertices = append(mesh.Vertices, v[:]...)
	// normals are accumulated from faces later
	mesh.Vertices = append(mesh.Vertices, 0, 0, 0)
	// cylindrical UV
	theta := float32(math.Atan2(float64(v.Y()), float64(v.X())))
	pt := theta*0.5/math.Pi + 0.5
	mesh.Vertices = append(mesh.Vertices, v.Z()/3+0.5, pt)
	mesh.Vertices = append(mesh.Vertices, color[:]...)
	return uint16(p)
}

func (mesh *MeshData) position(i uint16) m.Vec3 {
	off := int(i) * MeshVertexFloats
	return m.Vec3{mesh.Vertices[off], mesh.Vertices[off+1], mesh.Vertices[off+2]}
}

func (mesh *MeshData) addNormal(i uint16, n m.Vec3) {
	off := int(i)*MeshVertexFloats + 3
	mesh.Vertices[off] += n[0]
	mesh.Vertices[off+1] += n[1]
	mesh.Vertices[off+2] += n[2]
}

func (mesh *MeshData) Triangle(a, b, c uint16) {
	mesh.Indices = append(mesh.Indices, a, b, c)
}

// SmoothNormals sets every vertex normal to the normalized sum of the face
// normals of the triangles using it.
func (mesh *MeshData) SmoothNormals() {
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a, b, c := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		pa, pb, pc := mesh.position(a), mesh.position(b), mesh.position(c)
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		mesh.addNormal(a, n)
		mesh.addNormal(b, n)
		mesh.addNormal(c, n)
	}
	for i := 0; i < mesh.VertexCount(); i++ {
		off := i*MeshVertexFloats + 3
		n := m.Vec3{mesh.Vertices[off], mesh.Vertices[off+1], mesh.Vertices[off+2]}
		if l := n.Len(); l > 1e-6 {
			n = n.Mul(1 / l)
		}
		copy(mesh.Vertices[off:off+3], n[:])
	}
}

// PreviewMesh is the default object drawn by the viewer.
func PreviewMesh() MeshData {
	return Lathe(16, 24, true, func(t, phase float32) m.Vec3 {
		r := 12.291*t*t*t - 20*t*t + 8.508*t
		h := 3 * t
		rx := impulse(1, h) * 0.5

		sn, cs := math.Sincos(float64(phase))
		return m.Vec3{
			r * float32(sn) * rx,
			r * float32(cs),
			(t - 0.5) * 3,
		}
	})
}

func impulse(k, x float32) float32 {
	h := k * x
	return h * float32(math.Exp(float64(1-h)))
}

// Lathe sweeps fn around the z axis. t runs from 0 to 1 along the axis and
// phase from 0 to 2π around it. Vertex colors fade from head to tail.
func Lathe(depth, corners int, capped bool, fn func(t, phase float32) m.Vec3) MeshData {
	mesh := MeshData{}
	color := func(t float32) m.Vec4 { return m.Vec4{1 - t*0.5, 0.8, 0.5 + t*0.5, 1} }

	var headAverage m.Vec3
	lastLayer, nextLayer := make([]uint16, corners), make([]uint16, corners)
	for pi := 0; pi < corners; pi++ {
		p := float32(pi) * math.Pi * 2 / float32(corners-1)
		v := fn(0, p)
		lastLayer[pi] = mesh.Vertex(v, color(0))
		headAverage = headAverage.Add(v)
	}

	if capped {
		headAverage = headAverage.Mul(1 / float32(corners))
		z0 := mesh.Vertex(headAverage, color(0))
		for pi := 0; pi < corners; pi++ {
			a, b := lastLayer[pi], lastLayer[(pi+1)%corners]
			mesh.Triangle(z0, a, b)
		}
	}

	var tailAverage m.Vec3
	for ti := 1; ti < depth; ti++ {
		t := float32(ti) / float32(depth-1)
		for pi := 0; pi < corners; pi++ {
			p := float32(pi) * math.Pi * 2 / float32(corners-1)
			v := fn(t, p)
			nextLayer[pi] = mesh.Vertex(v, color(t))
			if ti == depth-1 {
				tailAverage = tailAverage.Add(v)
			}
		}

		for pi := 0; pi < corners; pi++ {
			a, b := lastLayer[pi], lastLayer[(pi+1)%corners]
			c, d := nextLayer[pi], nextLayer[(pi+1)%corners]
			mesh.Triangle(a, c, d)
			mesh.Triangle(a, d, b)
		}

		lastLayer, nextLayer = nextLayer, lastLayer
	}

	if capped {
		tailAverage = tailAverage.Mul(1 / float32(corners))
		zt := mesh.Vertex(tailAverage, color(1))
		for pi := 0; pi < corners; pi++ {
			a, b := lastLayer[pi], lastLayer[(pi+1)%corners]
			mesh.Triangle(a, zt, b)
		}
	}

	mesh.SmoothNormals()
	return mesh
}
