package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyDataset() Dataset {
	return Dataset{
		Headers: []string{"escrow_id", "location", "payout"},
		Rows: []map[string]string{
			{"escrow_id": "12", "location": "Vake Park, Tbilisi", "payout": "25.5"},
			{"escrow_id": "15", "location": "Mtatsminda", "payout": "30"},
		},
		Footer: map[string]string{"escrow_id": "total", "payout": "55.5"},
	}
}

func TestCSVExporterRendersFooter(t *testing.T) {
	out, err := NewCSVExporter().Render(historyDataset())
	require.NoError(t, err)
	expected := "escrow_id,location,payout\n12,\"Vake Park, Tbilisi\",25.5\n15,Mtatsminda,30\ntotal,,55.5\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(historyDataset(), "Class history @anna")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
