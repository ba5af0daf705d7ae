// Package particles simulates the ambient floating dots behind the lyrics.
// The field is capped at the configured target and advances with the beat
// factor, so motion leans into the music.
package particles

import (
	"image/color"
	"math/rand"

	"github.com/fogleman/gg"
)

type particle struct {
	x, y   float64
	vx, vy float64
	radius float64
	color  color.RGBA
	age    int
	maxAge int
}

// Field owns every live particle. All methods are called from the render
// loop only; the field is not safe for concurrent use.
type Field struct {
	particles []particle
	target    int
	primary   color.RGBA
	secondary color.RGBA
	rng       *rand.Rand
}

// NewField creates an empty field. The seed pins down the spawn pattern so
// an export of the same inputs reproduces the same pixels.
func NewField(target int, primary, secondary color.RGBA, seed uint64) *Field {
	return &Field{
		target:    target,
		primary:   primary,
		secondary: secondary,
		rng:       rand.New(rand.NewSource(int64(seed))),
	}
}

// Len reports the live particle count.
func (f *Field) Len() int {
	return len(f.particles)
}

// Spawn creates one particle at a random position when the field is below
// target. One per frame keeps regrowth gradual instead of popping in.
func (f *Field) Spawn(width, height float64) {
	if len(f.particles) >= f.target {
		return
	}

	c := f.primary
	if f.rng.Float64() < 0.5 {
		c = f.secondary
	}

	f.particles = append(f.particles, particle{
		x:      f.rng.Float64() * width,
		y:      f.rng.Float64() * height,
		vx:     (f.rng.Float64() - 0.5) * 2,
		vy:     (f.rng.Float64() - 0.5) * 2,
		radius: 1 + f.rng.Float64()*3,
		color:  c,
		age:    0,
		maxAge: 100 + f.rng.Intn(200),
	})
}

// Step advances every particle by its velocity scaled with the beat factor,
// reflects off the edges, ages the field and culls anything past max age.
func (f *Field) Step(width, height, beatFactor float64) {
	live := f.particles[:0]
	for i := range f.particles {
		p := f.particles[i]

		p.x += p.vx * beatFactor
		p.y += p.vy * beatFactor

		if p.x < 0 || p.x > width {
			p.vx = -p.vx
		}
		if p.y < 0 || p.y > height {
			p.vy = -p.vy
		}

		p.age++
		if p.age >= p.maxAge {
			continue
		}
		live = append(live, p)
	}
	f.particles = live
}

// Draw renders each particle as a disc fading out linearly over its life.
func (f *Field) Draw(dc *gg.Context) {
	for i := range f.particles {
		p := &f.particles[i]
		alpha := 1 - float64(p.age)/float64(p.maxAge)
		dc.SetRGBA(
			float64(p.color.R)/255,
			float64(p.color.G)/255,
			float64(p.color.B)/255,
			alpha,
		)
		dc.DrawCircle(p.x, p.y, p.radius)
		dc.Fill()
	}
}

// Clear empties the field. Called on canvas resize: positions are absolute
// pixels, so survivors of a resize would cluster in the old geometry.
func (f *Field) Clear() {
	f.particles = f.particles[:0]
}

// SetTarget changes the population cap. Excess particles are not culled
// here; they age out naturally while no spawns happen.
func (f *Field) SetTarget(n int) {
	f.target = n
}
