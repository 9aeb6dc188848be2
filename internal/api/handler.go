package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"geo-alert-engine/internal/event"
)

// Enqueuer is the slice of the manager the ingest surface needs.
type Enqueuer interface {
	Enqueue(e event.Event)
}

type IngestHandler struct {
	target Enqueuer
}

func NewIngestHandler(target Enqueuer) *IngestHandler {
	return &IngestHandler{target: target}
}

type envelope struct {
	Type    string         `json:"type"`
	Message map[string]any `json:"message"`
}

// Ingest accepts the upstream webhook payload: either one envelope or an
// array of them. Envelopes that fail to parse are skipped; they are the
// producer's malformed data, not ours to retry.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable payload", http.StatusBadRequest)
		return
	}

	var envs []envelope
	if err := json.Unmarshal(body, &envs); err != nil {
		var one envelope
		if err2 := json.Unmarshal(body, &one); err2 != nil {
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		envs = []envelope{one}
	}

	accepted := 0
	for _, env := range envs {
		e, err := event.FromEnvelope(env.Type, env.Message)
		if err != nil {
			log.Debug().Err(err).Str("type", env.Type).Msg("skipping unparseable envelope")
			continue
		}
		h.target.Enqueue(e)
		accepted++
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]int{"accepted": accepted})
}
