package ingest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/perflog"
)

func TestSessionBufferIsCapped(t *testing.T) {
	const id = "123e4567-e89b-42d3-a456-426614174000"
	h := NewHandler(perflog.New(io.Discard), perflog.Options{}, WithSessionBufferLimit(120))
	t.Cleanup(h.Close)

	for batch := 0; batch < 5; batch++ {
		entries := make([]string, 0, 100)
		for i := 0; i < 100; i++ {
			entries = append(entries, fmt.Sprintf(`{"name":"https://x/%d-%d.js","entryType":"resource","startTime":%d,"duration":1}`, batch, i, i))
		}
		body := `{"session":"` + id + `","entries":[` + strings.Join(entries, ",") + `]}`
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(body)))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	h.mu.Lock()
	s := h.sessions[id]
	h.mu.Unlock()
	require.NotNil(t, s)
	assert.Len(t, s.buffer.Entries(perflog.EntryResource), 120)
	assert.Equal(t, 380, s.buffer.Dropped(perflog.EntryResource))
}

func TestDefaultSessionBufferLimit(t *testing.T) {
	h := NewHandler(nil, perflog.Options{})
	t.Cleanup(h.Close)
	assert.Equal(t, DefaultSessionBufferLimit, h.bufferLimit)
}
