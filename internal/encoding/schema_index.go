package encoding

import (
	"fmt"

	"gochurn/domain/model"
)

// FeatureVector is one encoded record aligned to a Schema
type FeatureVector []float64

// SchemaIndex maps column names to vector positions. Built once per schema and
// read-only afterwards, so it can be shared between goroutines.
type SchemaIndex struct {
	schema model.Schema
	pos    map[string]int
}

// NewSchemaIndex builds the name -> position map for a schema
func NewSchemaIndex(schema model.Schema) (*SchemaIndex, error) {
	if len(schema) == 0 {
		return nil, fmt.Errorf("schema is empty")
	}
	pos := make(map[string]int, len(schema))
	for i, name := range schema {
		if _, dup := pos[name]; dup {
			return nil, fmt.Errorf("schema contains duplicate column %q", name)
		}
		pos[name] = i
	}
	return &SchemaIndex{schema: schema.Clone(), pos: pos}, nil
}

// Len returns the vector width
func (ix *SchemaIndex) Len() int {
	return len(ix.schema)
}

// Schema returns a copy of the indexed schema
func (ix *SchemaIndex) Schema() model.Schema {
	return ix.schema.Clone()
}

// Position returns the vector position of a column
func (ix *SchemaIndex) Position(name string) (int, bool) {
	i, ok := ix.pos[name]
	return i, ok
}

// NewVector returns a zero vector of the schema's width
func (ix *SchemaIndex) NewVector() FeatureVector {
	return make(FeatureVector, len(ix.schema))
}

// set writes v into the named column. Columns outside the schema are dropped.
func (ix *SchemaIndex) set(vec FeatureVector, name string, v float64) {
	if i, ok := ix.pos[name]; ok {
		vec[i] = v
	}
}
