// Package track describes the driving surface: material properties and the
// raster that maps world positions to materials.
package track

// Kind identifies a surface type. The zero value is the off-track surface so
// that an unset or unknown cell is always treated as grass.
type Kind uint8

const (
	Grass Kind = iota
	Tarmac
)

// OffTrack is the surface that penalises and eventually disables a car.
const OffTrack = Grass

// Material holds the friction coefficients of a surface.
type Material struct {
	RollingResistance       float32
	GroundResistance        float32
	AirResistanceMultiplier float32
	BoostMultiplier         float32
	Name                    string
}

// Double air resistance on grass is unrealistic but penalises leaving the track.
var materials = [...]Material{
	Grass:  {RollingResistance: 0.04, GroundResistance: 2, AirResistanceMultiplier: 2, BoostMultiplier: -2, Name: "Grass"},
	Tarmac: {RollingResistance: 0.03, GroundResistance: 0.9, AirResistanceMultiplier: 1, BoostMultiplier: 1.5, Name: "Tarmac"},
}

// Material returns the surface properties for k. Unknown kinds resolve to the
// off-track material.
func (k Kind) Material() Material {
	if int(k) >= len(materials) {
		return materials[OffTrack]
	}
	return materials[k]
}

// String returns the material name.
func (k Kind) String() string {
	return k.Material().Name
}

// MaterialMap answers which surface lies under a world position.
// Implementations must be safe for concurrent reads and must resolve
// out-of-bounds positions to OffTrack.
type MaterialMap interface {
	MaterialAt(x, y float32) Kind
}
