package procurement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/backend/internal/domain/shared"
)

// ============================================
// ParticipantStage Tests
// ============================================

func TestParticipantStage_IsValid(t *testing.T) {
	tests := []struct {
		stage   ParticipantStage
		isValid bool
	}{
		{ParticipantStagePending, true},
		{ParticipantStageViewed, true},
		{ParticipantStageOffered, true},
		{ParticipantStage("INVALID"), false},
		{ParticipantStage(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.stage.IsValid())
		})
	}
}

func TestParticipantStage_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		from       ParticipantStage
		to         ParticipantStage
		canAdvance bool
	}{
		{ParticipantStagePending, ParticipantStageViewed, true},
		{ParticipantStagePending, ParticipantStageOffered, true},
		{ParticipantStageViewed, ParticipantStageOffered, true},
		// never backwards, never to self
		{ParticipantStageViewed, ParticipantStagePending, false},
		{ParticipantStageOffered, ParticipantStageViewed, false},
		{ParticipantStageOffered, ParticipantStagePending, false},
		{ParticipantStagePending, ParticipantStagePending, false},
		{ParticipantStageOffered, ParticipantStageOffered, false},
		// invalid targets
		{ParticipantStagePending, ParticipantStage("INVALID"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canAdvance, tt.from.CanAdvanceTo(tt.to))
		})
	}
}

// ============================================
// Participant Tests
// ============================================

func TestNewParticipant(t *testing.T) {
	rfqID := uuid.New()
	supplierID := uuid.New()

	p, err := NewParticipant(rfqID, supplierID, "Acme Ltd", "sales@acme.example")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, rfqID, p.RfqID)
	assert.Equal(t, supplierID, p.SupplierID)
	assert.Equal(t, ParticipantStagePending, p.Stage)
	assert.False(t, p.HasOffered())
}

func TestNewParticipant_Validation(t *testing.T) {
	_, err := NewParticipant(uuid.New(), uuid.Nil, "Acme", "")
	assert.Error(t, err)

	_, err = NewParticipant(uuid.New(), uuid.New(), "", "")
	assert.Error(t, err)
}

func TestParticipant_AdvanceStage(t *testing.T) {
	p, err := NewParticipant(uuid.New(), uuid.New(), "Acme", "")
	require.NoError(t, err)

	require.NoError(t, p.AdvanceStage(ParticipantStageViewed))
	assert.Equal(t, ParticipantStageViewed, p.Stage)

	require.NoError(t, p.AdvanceStage(ParticipantStageOffered))
	assert.Equal(t, ParticipantStageOffered, p.Stage)
	assert.True(t, p.HasOffered())
}

func TestParticipant_AdvanceStage_NeverRegresses(t *testing.T) {
	p, err := NewParticipant(uuid.New(), uuid.New(), "Acme", "")
	require.NoError(t, err)
	require.NoError(t, p.AdvanceStage(ParticipantStageOffered))

	err = p.AdvanceStage(ParticipantStageViewed)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STAGE_TRANSITION", domainErr.Code)
	assert.Equal(t, ParticipantStageOffered, p.Stage)
}
