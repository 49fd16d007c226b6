package buddy

import "golang.org/x/exp/slices"

const percentileSize = 4096

// Percentile is a fixed-capacity rolling sample of observed values; once
// full, new samples overwrite the oldest one. It backs the allocator's
// optional request-size distribution diagnostic.
type Percentile struct {
	data   []float64
	sorted bool
	pos    int
}

// NewPercentile creates an empty rolling sample.
func NewPercentile() *Percentile {
	return &Percentile{
		data: make([]float64, 0, percentileSize),
	}
}

// Add records a new observation.
func (p *Percentile) Add(v float64) {
	p.sorted = false
	if len(p.data) == percentileSize {
		p.data[p.pos] = v
		p.pos = (p.pos + 1) % percentileSize
	} else {
		p.data = append(p.data, v)
	}
}

func (p *Percentile) sort() {
	if !p.sorted {
		slices.Sort(p.data)
		p.sorted = true
	}
}

// Percentile returns the value at the given percentile (0..100).
func (p *Percentile) Percentile(percentile float64) float64 {
	if len(p.data) == 0 {
		return 0
	}
	p.sort()
	i := int((percentile / 100) * float64(len(p.data)))
	if i >= len(p.data) {
		i = len(p.data) - 1
	}
	return p.data[i]
}

// Min returns the smallest observation.
func (p *Percentile) Min() float64 {
	if len(p.data) == 0 {
		return 0
	}
	p.sort()
	return p.data[0]
}

// Max returns the largest observation.
func (p *Percentile) Max() float64 {
	if len(p.data) == 0 {
		return 0
	}
	p.sort()
	return p.data[len(p.data)-1]
}

// Avg returns the arithmetic mean of all observations.
func (p *Percentile) Avg() float64 {
	if len(p.data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.data {
		sum += v
	}
	return sum / float64(len(p.data))
}

// Len returns the number of observations currently held.
func (p *Percentile) Len() int {
	return len(p.data)
}
