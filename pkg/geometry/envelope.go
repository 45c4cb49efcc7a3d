package geometry

import "math"

// Envelope is an axis-aligned bounding box. The zero value is empty.
type Envelope struct {
	Min, Max Coordinate
	valid    bool
}

// EnvelopeOf returns the bounding box of g. NaN coordinates are ignored.
func EnvelopeOf(g Geometry) Envelope {
	var e Envelope
	if g == nil {
		return e
	}
	for _, c := range g.Coordinates() {
		e.Include(c)
	}
	return e
}

// IsEmpty reports whether no coordinate has been included.
func (e Envelope) IsEmpty() bool { return !e.valid }

// Include grows e to contain c.
func (e *Envelope) Include(c Coordinate) {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || (c.Is3D && math.IsNaN(c.Z)) {
		return
	}
	if !e.valid {
		e.Min, e.Max, e.valid = c, c, true
		return
	}
	e.Min.X, e.Max.X = math.Min(e.Min.X, c.X), math.Max(e.Max.X, c.X)
	e.Min.Y, e.Max.Y = math.Min(e.Min.Y, c.Y), math.Max(e.Max.Y, c.Y)
	if c.Is3D {
		if !e.Min.Is3D {
			e.Min.Z, e.Max.Z = c.Z, c.Z
			e.Min.Is3D, e.Max.Is3D = true, true
		}
		e.Min.Z, e.Max.Z = math.Min(e.Min.Z, c.Z), math.Max(e.Max.Z, c.Z)
	}
}

// Merge grows e to contain o.
func (e *Envelope) Merge(o Envelope) {
	if o.valid {
		e.Include(o.Min)
		e.Include(o.Max)
	}
}

// Diagonal returns the line from Min to Max, or nil for an empty envelope.
// EnvelopeOf(e.Diagonal()) equals e.
func (e Envelope) Diagonal() *LineString {
	if !e.valid {
		return nil
	}
	return NewLineString([]Coordinate{e.Min, e.Max})
}
