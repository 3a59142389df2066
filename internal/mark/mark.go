// Package mark holds timed marks used to steer movement between labeled
// points in time.
package mark

import (
	"errors"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Mark is a point in time with an optional text label.
type Mark struct {
	StartTime time.Duration
	Text      string
}

// Label parses the mark text as a number. Unparseable text reads as 0.
func (m Mark) Label() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(m.Text), 64)
	if err != nil {
		return 0
	}
	return v
}

// Source yields marks between two times, ordered by start.
type Source interface {
	MarksInRange(start, end time.Duration) []Mark
}

// Collection is a named, ordered set of marks.
type Collection struct {
	ID      uuid.UUID
	Name    string
	Enabled bool
	Level   int
	Marks   []Mark
}

// NewCollection sorts marks by start time into a fresh collection.
func NewCollection(name string, marks ...Mark) *Collection {
	c := &Collection{ID: uuid.New(), Name: name, Enabled: true, Level: 1}
	c.Add(marks...)
	return c
}

// Add inserts marks keeping timestamps non-decreasing.
func (c *Collection) Add(marks ...Mark) {
	c.Marks = append(c.Marks, marks...)
	sort.SliceStable(c.Marks, func(i, j int) bool {
		return c.Marks[i].StartTime < c.Marks[j].StartTime
	})
}

// MarksInRange returns the marks with start in [start, end], inclusive.
func (c *Collection) MarksInRange(start, end time.Duration) []Mark {
	if c == nil || !c.Enabled {
		return nil
	}
	lo := sort.Search(len(c.Marks), func(i int) bool { return c.Marks[i].StartTime >= start })
	hi := sort.Search(len(c.Marks), func(i int) bool { return c.Marks[i].StartTime > end })
	if lo >= hi {
		return nil
	}
	out := make([]Mark, hi-lo)
	copy(out, c.Marks[lo:hi])
	return out
}

// IndexOf returns the position of the first mark at t, or -1.
func (c *Collection) IndexOf(t time.Duration) int {
	for i, m := range c.Marks {
		if m.StartTime == t {
			return i
		}
	}
	return -1
}

type markFile struct {
	Name  string `yaml:"name"`
	Marks []struct {
		TMs  int64  `yaml:"t_ms"`
		Text string `yaml:"text,omitempty"`
	} `yaml:"marks"`
}

// Load reads a YAML mark file:
//
//	name: beats
//	marks:
//	  - {t_ms: 0, text: "0"}
//	  - {t_ms: 1000, text: "100"}
func Load(path string) (*Collection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f markFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if len(f.Marks) == 0 {
		return nil, errors.New("mark file has no marks")
	}
	c := NewCollection(f.Name)
	for _, m := range f.Marks {
		c.Add(Mark{StartTime: time.Duration(m.TMs) * time.Millisecond, Text: m.Text})
	}
	return c, nil
}
