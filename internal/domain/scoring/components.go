package scoring

import "math"

// Components is the weighted breakdown of a facial score.
type Components struct {
	Symmetry int `json:"symmetry"`
	Vibe     int `json:"vibe"`
	Mystique int `json:"mystique"`
}

// Sum returns the unclamped total of the three components.
func (c Components) Sum() int {
	return c.Symmetry + c.Vibe + c.Mystique
}

// component describes one weighted sub-score. The draw is made over
// [min,max] and then scaled by weight so the result fits its share of 100.
type component struct {
	tag    string
	min    float64
	max    float64
	weight float64
}

var (
	symmetry = component{tag: "symmetry", min: 60, max: 95, weight: 0.35}
	vibe     = component{tag: "vibe", min: 55, max: 90, weight: 0.40}
	mystique = component{tag: "mystique", min: 50, max: 85, weight: 0.25}
)

// Upper bounds of each weighted component.
const (
	MaxSymmetry = 35
	MaxVibe     = 40
	MaxMystique = 25
)

func (c component) value(seed string) int {
	// The explicit conversion keeps the product from being fused into an
	// FMA, so every platform rounds the same way.
	raw := c.min + float64(Unit(seed+c.tag)*(c.max-c.min))
	return int(math.Round(raw * c.weight))
}

// ComponentsFromSeed derives the three weighted components from seed.
func ComponentsFromSeed(seed string) Components {
	return Components{
		Symmetry: symmetry.value(seed),
		Vibe:     vibe.value(seed),
		Mystique: mystique.value(seed),
	}
}
