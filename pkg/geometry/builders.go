package geometry

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// NewPlaneMesh creates a horizontal rectangle centred at center with normal +Y
func NewPlaneMesh(center core.Vec3, width, depth float64) MeshData {
	hw, hd := width/2, depth/2
	data := MeshData{
		Name: "plane",
		Vertices: []core.Vec3{
			core.NewVec3(center.X-hw, center.Y, center.Z+hd),
			core.NewVec3(center.X+hw, center.Y, center.Z+hd),
			core.NewVec3(center.X+hw, center.Y, center.Z-hd),
			core.NewVec3(center.X-hw, center.Y, center.Z-hd),
		},
		Normals: []core.Vec3{core.NewVec3(0, 1, 0)},
	}
	data.addQuad(0, 1, 2, 3, 0)
	return data
}

// NewBoxMesh creates a box with flat-shaded faces.
// halfExtents are half the box size along each axis; rotation is in radians
// around X, Y, Z (applied in that order) about the box centre.
func NewBoxMesh(center, halfExtents, rotation core.Vec3) MeshData {
	// The 8 corners of a unit box centred at the origin
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}

	data := MeshData{Name: "box"}
	for _, corner := range corners {
		corner = corner.MultiplyVec(halfExtents).Rotate(rotation).Add(center)
		data.Vertices = append(data.Vertices, corner)
	}

	// Quads listed counter-clockwise when viewed from outside
	quads := [6][4]int{
		{4, 5, 6, 7}, // front (Z+)
		{1, 0, 3, 2}, // back (Z-)
		{5, 1, 2, 6}, // right (X+)
		{0, 4, 7, 3}, // left (X-)
		{3, 7, 6, 2}, // top (Y+)
		{4, 0, 1, 5}, // bottom (Y-)
	}
	for _, q := range quads {
		normal := FaceNormal(data.Vertices[q[0]], data.Vertices[q[1]], data.Vertices[q[3]])
		data.Normals = append(data.Normals, normal)
		data.addQuad(q[0], q[1], q[2], q[3], len(data.Normals)-1)
	}
	return data
}

// NewUVSphereMesh tessellates a sphere into segments around the Y axis and
// rings from pole to pole, with smooth normals.
func NewUVSphereMesh(center core.Vec3, radius float64, segments, rings int) MeshData {
	segments = max(segments, 3)
	rings = max(rings, 2)

	data := MeshData{Name: "uvsphere"}
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			normal := core.NewVec3(
				math.Sin(phi)*math.Cos(theta),
				math.Cos(phi),
				-math.Sin(phi)*math.Sin(theta),
			)
			data.Vertices = append(data.Vertices, center.Add(normal.Multiply(radius)))
			data.Normals = append(data.Normals, normal)
		}
	}

	row := segments + 1
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			i0 := r*row + s
			i1 := i0 + 1
			i2 := i0 + row
			i3 := i2 + 1

			// Skip the zero-area triangles that touch a pole
			if r != 0 {
				data.Faces = append(data.Faces, smoothFace(i0, i2, i1))
			}
			if r != rings-1 {
				data.Faces = append(data.Faces, smoothFace(i1, i2, i3))
			}
		}
	}
	return data
}

// addQuad appends the two triangles of quad q0 q1 q2 q3, all corners sharing one normal
func (d *MeshData) addQuad(q0, q1, q2, q3, normal int) {
	n := [3]int{normal, normal, normal}
	d.Faces = append(d.Faces,
		Face{Vertices: [3]int{q0, q1, q2}, Normals: n},
		Face{Vertices: [3]int{q0, q2, q3}, Normals: n},
	)
}

// smoothFace is a face whose normal indices equal its vertex indices
func smoothFace(a, b, c int) Face {
	return Face{Vertices: [3]int{a, b, c}, Normals: [3]int{a, b, c}}
}
