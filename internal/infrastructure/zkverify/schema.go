package zkverify

import (
	"fmt"
	"strings"
)

// OutputSchema names the positions and fields a blueprint exposes in its
// public outputs. Extraction consults the schema for the submitted
// blueprint; there is no fallback layout. The schema version travels with
// the blueprint id (e.g. "purchase-confirmation/v1") so a relayout on the
// proving side is a new id, never a silent reinterpretation.
type OutputSchema struct {
	BlueprintID string

	// NullifierIndex is the position of the nullifier in PublicOutputs.
	NullifierIndex int

	// SubjectField is the key of the subject name in PublicData.
	SubjectField string
}

// SchemaRegistry maps blueprint ids to their output schemas.
type SchemaRegistry struct {
	schemas map[string]OutputSchema
}

// NewSchemaRegistry builds a registry from the given schemas.
func NewSchemaRegistry(schemas ...OutputSchema) *SchemaRegistry {
	r := &SchemaRegistry{schemas: make(map[string]OutputSchema, len(schemas))}
	for _, s := range schemas {
		r.schemas[s.BlueprintID] = s
	}
	return r
}

// DefaultSchemas returns the schema set for the shipped blueprint. The
// purchase-confirmation blueprint emits the nullifier at output index 1.
func DefaultSchemas(blueprintID string) []OutputSchema {
	return []OutputSchema{
		{
			BlueprintID:    blueprintID,
			NullifierIndex: 1,
			SubjectField:   "subject",
		},
	}
}

// Extract pulls the public fields out of a proof per the blueprint's
// schema. Unknown blueprints, short output arrays, and empty fields all
// fail closed with ErrMalformedProof.
func (r *SchemaRegistry) Extract(proof *Proof, blueprintID string) (PublicFields, error) {
	schema, ok := r.schemas[blueprintID]
	if !ok {
		return PublicFields{}, fmt.Errorf("%w: no output schema for blueprint %q", ErrMalformedProof, blueprintID)
	}

	if schema.NullifierIndex >= len(proof.PublicOutputs) {
		return PublicFields{}, fmt.Errorf("%w: expected at least %d public outputs, got %d",
			ErrMalformedProof, schema.NullifierIndex+1, len(proof.PublicOutputs))
	}

	nullifier := strings.TrimSpace(proof.PublicOutputs[schema.NullifierIndex])
	if nullifier == "" {
		return PublicFields{}, fmt.Errorf("%w: empty nullifier output", ErrMalformedProof)
	}

	subject := strings.TrimSpace(proof.PublicData[schema.SubjectField])
	if subject == "" {
		return PublicFields{}, fmt.Errorf("%w: missing public data field %q", ErrMalformedProof, schema.SubjectField)
	}

	return PublicFields{Nullifier: nullifier, SubjectName: subject}, nil
}
