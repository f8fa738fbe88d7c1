package zkverify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Verification outcomes. Invalid and unavailable are strictly distinct: an
// invalid proof is a final rejection, an unavailable verifier is a
// retryable infrastructure failure.
var (
	// ErrInvalidProof means the verifier ran and rejected the proof.
	ErrInvalidProof = errors.New("proof verification failed")

	// ErrVerifierUnavailable means the verifier could not be reached or did
	// not answer in time. Nothing can be concluded about the proof.
	ErrVerifierUnavailable = errors.New("verifier unavailable")

	// ErrMalformedProof means the proof payload or its public outputs do
	// not match the expected shape. Extraction fails closed.
	ErrMalformedProof = errors.New("malformed proof payload")
)

// Proof is the payload produced by the proving side. PublicOutputs is a
// positionally-indexed array whose layout is fixed per blueprint;
// PublicData carries named fields. Blob is the opaque cryptographic proof,
// passed through to the verifier untouched.
type Proof struct {
	Blob          json.RawMessage   `json:"proof"`
	PublicOutputs []string          `json:"public_outputs"`
	PublicData    map[string]string `json:"public_data"`
}

// ParseProof decodes a raw proof payload. Any decoding failure or missing
// blob is ErrMalformedProof.
func ParseProof(raw json.RawMessage) (*Proof, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedProof)
	}

	var p Proof
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}

	if len(p.Blob) == 0 {
		return nil, fmt.Errorf("%w: missing proof blob", ErrMalformedProof)
	}

	return &p, nil
}

// PublicFields are the fields extracted from a proof's public outputs that
// the submission pipeline consumes.
type PublicFields struct {
	// Nullifier is the exactly-once credential for this proof.
	Nullifier string

	// SubjectName identifies what the underlying email was about, e.g. the
	// purchased product's name.
	SubjectName string
}

// Service is the external verifier collaborator.
type Service interface {
	// Verify returns nil when the proof checks out, ErrInvalidProof when
	// the verifier rejects it, and ErrVerifierUnavailable when no verdict
	// could be obtained.
	Verify(ctx context.Context, proof *Proof, blueprintID string) error

	// ExtractPublicFields pulls the pipeline's fields out of the proof
	// according to the blueprint's output schema. Any shape mismatch is
	// ErrMalformedProof.
	ExtractPublicFields(proof *Proof, blueprintID string) (PublicFields, error)
}
