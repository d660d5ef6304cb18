// Package corpus holds learned templates.
package corpus

import "github.com/verte-zerg/hexcaster/internal/model"

// Corpus is an ordered, append-only set of templates. It is owned by a
// single goroutine and is not safe for concurrent use.
type Corpus struct {
	templates []model.Shape
	capacity  int
	evicted   int
}

// New returns a Corpus. A capacity of zero or less means unbounded; otherwise
// the oldest template is evicted once capacity is reached.
func New(capacity int) *Corpus {
	if capacity < 0 {
		capacity = 0
	}
	return &Corpus{capacity: capacity}
}

// Add stores a template and returns the new corpus size.
func (c *Corpus) Add(s model.Shape) int {
	if c.capacity > 0 && len(c.templates) >= c.capacity {
		copy(c.templates, c.templates[1:])
		c.templates[len(c.templates)-1] = s
		c.evicted++
		return len(c.templates)
	}
	c.templates = append(c.templates, s)
	return len(c.templates)
}

// Len returns the number of templates.
func (c *Corpus) Len() int {
	return len(c.templates)
}

// Evicted returns how many templates were dropped by the capacity bound.
func (c *Corpus) Evicted() int {
	return c.evicted
}

// ID returns the learning-order number of the template at position i of the
// snapshot. Evicted templates keep their numbers, so an ID never moves to a
// different shape.
func (c *Corpus) ID(i int) int {
	return c.evicted + i
}

// Snapshot returns the current templates. Appending to the result does not
// affect the corpus; callers must not modify the shapes.
func (c *Corpus) Snapshot() []model.Shape {
	return c.templates[:len(c.templates):len(c.templates)]
}
