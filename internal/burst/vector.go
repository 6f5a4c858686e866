package burst

import (
	"math"
	"math/rand"
)

// velocityRadius bounds the magnitude of every generated velocity vector.
const velocityRadius = 9.0

// Polar is a vector stored as magnitude and direction (radians).
type Polar struct {
	Magnitude float64
	Direction float64
}

// ToPolar converts a Cartesian vector.
func ToPolar(x, y float64) Polar {
	return Polar{
		Magnitude: math.Sqrt(x*x + y*y),
		Direction: math.Atan2(y, x),
	}
}

// Cartesian converts back to x, y components.
func (p Polar) Cartesian() (x, y float64) {
	return p.Magnitude * math.Cos(p.Direction), p.Magnitude * math.Sin(p.Direction)
}

// randomVelocity draws a vector uniformly from the open disc of the given
// radius by rejection sampling the enclosing square.
func randomVelocity(rng *rand.Rand, radius float64) Polar {
	r2 := radius * radius
	for {
		x := rng.Float64()*radius*2 - radius
		y := rng.Float64()*radius*2 - radius
		if x*x+y*y < r2 {
			return ToPolar(x, y)
		}
	}
}
