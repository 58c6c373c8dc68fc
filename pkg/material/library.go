package material

// ID is a stable handle to a material stored in a Library
type ID int

// None is the ID carried by hit records that did not hit a surface
const None ID = -1

// Library stores the materials of a scene.
// Many primitives share one entry by holding the same ID.
// A Library is not safe for concurrent Add; it is read-only while rendering.
type Library struct {
	materials []Material
	neutral   Material
}

// NewLibrary creates an empty material library
func NewLibrary() *Library {
	return &Library{neutral: Neutral()}
}

// Add stores a material and returns its ID
func (l *Library) Add(m Material) ID {
	l.materials = append(l.materials, m)
	return ID(len(l.materials) - 1)
}

// Get returns the material for id. None and unknown IDs resolve to the neutral material.
func (l *Library) Get(id ID) Material {
	if id < 0 || int(id) >= len(l.materials) {
		return l.neutral
	}
	return l.materials[id]
}

// Len returns the number of stored materials
func (l *Library) Len() int {
	return len(l.materials)
}
