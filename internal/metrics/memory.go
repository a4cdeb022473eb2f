package metrics

import "sync"

// MemorySink keeps the most recent emissions in memory. A limit of zero
// keeps everything.
type MemorySink struct {
	mu        sync.Mutex
	limit     int
	emissions []Emission
}

func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{limit: limit}
}

func (m *MemorySink) Emit(e Emission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emissions = append(m.emissions, e)
	if m.limit > 0 && len(m.emissions) > m.limit {
		m.emissions = append(m.emissions[:0:0], m.emissions[len(m.emissions)-m.limit:]...)
	}
	return nil
}

// Emissions returns a copy of everything held, oldest first.
func (m *MemorySink) Emissions() []Emission {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Emission, len(m.emissions))
	copy(out, m.emissions)
	return out
}

// Find returns the emissions with the given name whose dimensions contain
// every key/value in match.
func (m *MemorySink) Find(name string, match Dimensions) []Emission {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Emission
	for _, e := range m.emissions {
		if e.Name != name || !contains(e.Dimensions, match) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Sum adds up the numerators of matching emissions.
func (m *MemorySink) Sum(name string, match Dimensions) float64 {
	var total float64
	for _, e := range m.Find(name, match) {
		total += e.Value.Numerator
	}
	return total
}

func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emissions = nil
}

func contains(d, match Dimensions) bool {
	for k, v := range match {
		if d[k] != v {
			return false
		}
	}
	return true
}
