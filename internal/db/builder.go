package db

import "strings"

// IndexBuilder assembles a chunk index definition.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for the named index.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix sets the key prefix the index covers.
func (b *IndexBuilder) Prefix(prefix string) *IndexBuilder {
	b.def.Prefix = prefix
	return b
}

// Tag adds TAG fields, used for exact-match metadata.
func (b *IndexBuilder) Tag(names ...string) *IndexBuilder {
	b.def.Tags = append(b.def.Tags, names...)
	return b
}

// Numeric adds NUMERIC fields.
func (b *IndexBuilder) Numeric(names ...string) *IndexBuilder {
	b.def.Numerics = append(b.def.Numerics, names...)
	return b
}

// Vector sets the embedding field, queried as alias.
func (b *IndexBuilder) Vector(name, alias string, dim int) *IndexBuilder {
	b.def.Vector.Name = name
	b.def.Vector.Alias = alias
	b.def.Vector.Dim = dim
	return b
}

// HNSW overrides graph parameters; zero keeps the defaults.
func (b *IndexBuilder) HNSW(m, efConstruction int) *IndexBuilder {
	b.def.Vector.M = m
	b.def.Vector.EFConstruction = efConstruction
	return b
}

// Build validates and returns the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// String renders the full FT.CREATE command for logs.
func (d *IndexDefinition) String() string {
	return "FT.CREATE " + strings.Join(d.Args(), " ")
}
