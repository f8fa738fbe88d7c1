package zkverify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ================================================
// MOCK VERIFIER SERVICE (for development)
// ================================================

// MockService accepts every well-formed proof without cryptographic
// verification. Extraction still goes through the real schema registry so
// the development flow exercises the same fail-closed path.
type MockService struct {
	registry *SchemaRegistry

	// VerifyErr, when set, is returned by every Verify call. Lets tests
	// force invalid-proof and verifier-unavailable outcomes.
	VerifyErr error
}

func NewMockService(registry *SchemaRegistry) *MockService {
	return &MockService{registry: registry}
}

var _ Service = (*MockService)(nil)

func (m *MockService) Verify(ctx context.Context, proof *Proof, blueprintID string) error {
	if m.VerifyErr != nil {
		return m.VerifyErr
	}

	log.Info().
		Str("blueprint_id", blueprintID).
		Int("public_outputs", len(proof.PublicOutputs)).
		Msg("[MOCK] proof accepted without verification")
	return nil
}

func (m *MockService) ExtractPublicFields(proof *Proof, blueprintID string) (PublicFields, error) {
	return m.registry.Extract(proof, blueprintID)
}
