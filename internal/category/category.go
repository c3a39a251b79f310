// Package category maps waste-material labels to the output index the
// footprint model assigns them.
package category

// Set is an immutable bijection between labels and codes 0..n-1.
type Set struct {
	labels []string
	codes  map[string]int
}

// Waste returns the six materials the footprint model was trained on.
func Waste() *Set {
	return New("Plastic", "Metal", "Glass", "Textile", "Steel", "Chemical")
}

// New builds a set whose codes follow the argument order. Duplicate labels
// keep their first code.
func New(labels ...string) *Set {
	s := &Set{
		labels: make([]string, 0, len(labels)),
		codes:  make(map[string]int, len(labels)),
	}
	for _, l := range labels {
		if _, ok := s.codes[l]; ok {
			continue
		}
		s.codes[l] = len(s.labels)
		s.labels = append(s.labels, l)
	}
	return s
}

// Code is case-sensitive.
func (s *Set) Code(label string) (int, bool) {
	c, ok := s.codes[label]
	return c, ok
}

// Labels returns a copy, in code order.
func (s *Set) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

func (s *Set) Len() int {
	return len(s.labels)
}
