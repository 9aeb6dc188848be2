package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-alert-engine/internal/event"
)

type captureQueue struct {
	events []event.Event
}

func (q *captureQueue) Enqueue(e event.Event) { q.events = append(q.events, e) }

func post(t *testing.T, h *IngestHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Ingest(rec, req)
	return rec
}

func accepted(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var out map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out["accepted"]
}

func monsterEnvelope(encID string) string {
	return fmt.Sprintf(
		`{"type":"pokemon","message":{"encounter_id":%q,"pokemon_id":150,"latitude":1.0,"longitude":2.0,"disappear_time":%d}}`,
		encID, time.Now().Add(time.Hour).Unix())
}

func TestIngest_SingleEnvelope(t *testing.T) {
	q := &captureQueue{}
	h := NewIngestHandler(q)

	rec := post(t, h, monsterEnvelope("enc-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, accepted(t, rec))
	require.Len(t, q.events, 1)
	assert.Equal(t, event.KindMonster, q.events[0].Kind())
	assert.Equal(t, "enc-1", q.events[0].ID())
}

func TestIngest_EnvelopeArray(t *testing.T) {
	q := &captureQueue{}
	h := NewIngestHandler(q)

	body := "[" + monsterEnvelope("enc-1") + "," + monsterEnvelope("enc-2") + "]"
	rec := post(t, h, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, accepted(t, rec))
	assert.Len(t, q.events, 2)
}

func TestIngest_SkipsUnparseableEnvelopes(t *testing.T) {
	q := &captureQueue{}
	h := NewIngestHandler(q)

	// Missing encounter_id and an unsupported type: both skipped, the
	// valid one still lands.
	body := `[{"type":"pokemon","message":{"pokemon_id":1}},` +
		`{"type":"mystery","message":{}},` +
		monsterEnvelope("enc-ok") + `]`
	rec := post(t, h, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, accepted(t, rec))
	require.Len(t, q.events, 1)
	assert.Equal(t, "enc-ok", q.events[0].ID())
}

func TestIngest_MalformedBody(t *testing.T) {
	q := &captureQueue{}
	h := NewIngestHandler(q)

	rec := post(t, h, "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, q.events)
}

func TestIngest_RaidWithoutBossBecomesEgg(t *testing.T) {
	q := &captureQueue{}
	h := NewIngestHandler(q)

	body := fmt.Sprintf(`{"type":"raid","message":{"gym_id":"g1","level":5,"start":%d}}`,
		time.Now().Add(time.Hour).Unix())
	rec := post(t, h, body)

	assert.Equal(t, 1, accepted(t, rec))
	require.Len(t, q.events, 1)
	assert.Equal(t, event.KindEgg, q.events[0].Kind())
}
