package db

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// HNSW build parameters used when a definition leaves them unset.
const (
	DefaultHNSWM              = 16
	DefaultHNSWEFConstruction = 200
)

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_:-]+$`)

// VectorField is the single FLOAT32 HNSW field of a chunk index.
// Distance is always COSINE; SearchKNN turns it into a similarity.
type VectorField struct {
	Name           string // hash field holding the packed vector
	Alias          string // name used in KNN queries
	Dim            int
	M              int
	EFConstruction int
}

// IndexDefinition describes an FT index over chunk hashes.
// Chunks are always stored as hashes; valkey-search has no JSON support.
type IndexDefinition struct {
	Name     string
	Prefix   string
	Tags     []string
	Numerics []string
	Vector   VectorField
}

// Validate checks that the definition is complete and free of name clashes.
func (d *IndexDefinition) Validate() error {
	if d.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(d.Name) {
		return fmt.Errorf("index name %q contains invalid characters", d.Name)
	}
	if d.Prefix == "" {
		return errors.New("key prefix is required")
	}
	if d.Vector.Name == "" {
		return errors.New("vector field is required")
	}
	if d.Vector.Dim <= 0 {
		return errors.New("vector field requires positive DIM")
	}

	seen := make(map[string]bool, len(d.Tags)+len(d.Numerics)+1)
	for _, name := range d.fieldNames() {
		if name == "" {
			return errors.New("field name is required")
		}
		if seen[name] {
			return errors.New("duplicate field name: " + name)
		}
		seen[name] = true
	}
	return nil
}

// Args renders the FT.CREATE arguments that follow the command name.
func (d *IndexDefinition) Args() []string {
	args := []string{d.Name, "ON", "HASH", "PREFIX", "1", d.Prefix, "SCHEMA"}
	for _, t := range d.Tags {
		args = append(args, t, "TAG")
	}
	for _, n := range d.Numerics {
		args = append(args, n, "NUMERIC")
	}

	v := d.Vector
	args = append(args, v.Name)
	if v.Alias != "" {
		args = append(args, "AS", v.Alias)
	}
	m, ef := v.M, v.EFConstruction
	if m <= 0 {
		m = DefaultHNSWM
	}
	if ef <= 0 {
		ef = DefaultHNSWEFConstruction
	}
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", "COSINE",
		"M", strconv.Itoa(m),
		"EF_CONSTRUCTION", strconv.Itoa(ef),
	}
	args = append(args, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
	return append(args, attrs...)
}

// fieldNames lists the names queries address fields by, aliases included.
func (d *IndexDefinition) fieldNames() []string {
	names := make([]string, 0, len(d.Tags)+len(d.Numerics)+1)
	names = append(names, d.Tags...)
	names = append(names, d.Numerics...)
	if d.Vector.Alias != "" {
		return append(names, d.Vector.Alias)
	}
	return append(names, d.Vector.Name)
}

// IsValidIdentifier reports whether s is usable as an index name.
func IsValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}
