package db

import (
	"errors"
	"fmt"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	DistanceCosine DistanceMetric = "COSINE"
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
)

// TagField is an exact-match attribute of the indexed hashes.
type TagField struct {
	Name          string
	CaseSensitive bool
}

// VectorField is the HNSW embedding field of the indexed hashes.
type VectorField struct {
	Name        string
	Dim         int
	Distance    DistanceMetric
	M           int // max edges per node, server default when zero
	EFConstruct int // build-time candidate list size, server default when zero
}

// IndexDefinition describes an FT index over hashes sharing a key prefix:
// tag attributes usable as pre-filters plus one vector field.
type IndexDefinition struct {
	Name   string
	Prefix string
	Tags   []TagField
	Vector VectorField
}

// Validate checks that the definition can be turned into FT.CREATE.
func (d *IndexDefinition) Validate() error {
	if !IsValidIdentifier(d.Name) {
		return fmt.Errorf("invalid index name %q", d.Name)
	}
	if d.Prefix == "" {
		return errors.New("key prefix is required")
	}
	if d.Vector.Name == "" {
		return errors.New("vector field name is required")
	}
	if d.Vector.Dim <= 0 {
		return fmt.Errorf("vector field %s: dimension must be positive, got %d", d.Vector.Name, d.Vector.Dim)
	}
	switch d.Vector.Distance {
	case "", DistanceCosine, DistanceL2, DistanceIP:
	default:
		return fmt.Errorf("vector field %s: unknown distance %q", d.Vector.Name, d.Vector.Distance)
	}

	seen := map[string]bool{d.Vector.Name: true}
	for _, t := range d.Tags {
		if t.Name == "" {
			return errors.New("tag field name is required")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate field %s", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// IsValidIdentifier reports whether s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return true
}
