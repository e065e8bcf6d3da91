package partner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSupplier(t *testing.T) *Supplier {
	supplier, err := NewSupplier("sup-001", "Acme Ltd")
	require.NoError(t, err)
	return supplier
}

func TestNewSupplier(t *testing.T) {
	supplier := createTestSupplier(t)

	assert.Equal(t, "SUP-001", supplier.Code) // normalized to upper case
	assert.Equal(t, "Acme Ltd", supplier.Name)
	assert.Equal(t, SupplierStatusActive, supplier.Status)
	assert.True(t, supplier.IsActive())

	events := supplier.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeSupplierCreated, events[0].EventType())
}

func TestNewSupplier_Validation(t *testing.T) {
	tests := []struct {
		name string
		code string
		sup  string
	}{
		{"empty code", "", "Acme"},
		{"invalid code chars", "SUP 001!", "Acme"},
		{"empty name", "SUP-001", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSupplier(tt.code, tt.sup)
			assert.Error(t, err)
		})
	}
}

func TestSupplier_SetContact(t *testing.T) {
	supplier := createTestSupplier(t)

	require.NoError(t, supplier.SetContact("Ayşe Yılmaz", "+90 212 000 0000", "ayse@acme.example"))
	assert.Equal(t, "Ayşe Yılmaz", supplier.ContactName)
	assert.Equal(t, "ayse@acme.example", supplier.Email)

	assert.Error(t, supplier.SetContact("", "", "not-an-email"))
}

func TestSupplier_ActivateDeactivate(t *testing.T) {
	supplier := createTestSupplier(t)

	assert.Error(t, supplier.Activate()) // already active

	require.NoError(t, supplier.Deactivate())
	assert.False(t, supplier.IsActive())
	assert.Error(t, supplier.Deactivate())

	require.NoError(t, supplier.Activate())
	assert.True(t, supplier.IsActive())
}
