package visualizer

import "github.com/charmbracelet/harmonica"

// springBank eases a row of bar heights towards their targets so the
// spectrum does not jitter between analyser snapshots.
type springBank struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpringBank(fps int, frequency, damping float64) springBank {
	if fps <= 0 {
		fps = 30
	}
	return springBank{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

// resize keeps the backing slices when the length is unchanged.
func (s *springBank) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

func (s *springBank) settle() {
	clear(s.pos)
	clear(s.vel)
}

func (s *springBank) step(i int, target float64) float64 {
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	s.pos[i] = p
	s.vel[i] = v
	return min(max(p, 0), 1)
}
