package utils

import "github.com/google/uuid"

// RunIDGenerator issues sync run identifiers. They are UUIDv7, so IDs of
// consecutive runs sort by start time in logs.
type RunIDGenerator struct{}

func NewRunIDGenerator() *RunIDGenerator {
	return &RunIDGenerator{}
}

// NewRunID returns a UUIDv7 string. If the clock cannot be read it falls
// back to a random UUIDv4, which is still unique but unordered.
func (g *RunIDGenerator) NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
