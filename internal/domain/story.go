package domain

import "time"

// Story is one user post as served by the story API. Records are immutable
// once created; the local mirror only ever replaces whole records by ID.
type Story struct {
	ID          string
	Name        string
	Description string
	PhotoURL    string
	Lat         *float64
	Lon         *float64
	CreatedAt   time.Time
}

// HasLocation reports whether both coordinates are present. A story carries
// either both or neither.
func (s Story) HasLocation() bool {
	return s.Lat != nil && s.Lon != nil
}
