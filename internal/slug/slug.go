// Package slug generates the opaque public identifiers of records.
package slug

import (
	"github.com/google/uuid"

	"smarterd/internal/models"
)

// Generator produces unique opaque identifiers.
type Generator interface {
	Generate() string
}

// UUIDGenerator generates random UUIDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a random version 4 UUID.
func (g *UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// Assign gives rec a new slug unless it already carries one.
func Assign(gen Generator, rec models.Sluggable) {
	if rec.GetSlug() == "" {
		rec.SetSlug(gen.Generate())
	}
}
