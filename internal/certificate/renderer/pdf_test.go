package renderer

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteerhub/internal/certificate/models"
)

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	r := New(WithCompression(false))
	err := r.Render(&buf, models.Certificate{
		VolunteerName:   "Mei Tan",
		OpportunityName: "Beach cleanup",
		Hours:           3,
		Start:           time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC),
		End:             time.Date(2026, 4, 11, 11, 0, 0, 0, time.UTC),
		GeneratedAt:     time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, out, "(Mei Tan)")
	assert.Contains(t, out, "(Beach cleanup)")
	assert.Contains(t, out, "(on 11/04/2026)")
	assert.Contains(t, out, "3 hours")
	assert.Contains(t, out, "/MediaBox [0 0 841.89 595.28]", "landscape A4")
}
