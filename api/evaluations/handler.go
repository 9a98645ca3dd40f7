package evaluations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/compstation/core/evallog"
	"github.com/kilianp07/compstation/core/model"
	coremqtt "github.com/kilianp07/compstation/core/mqtt"
	"github.com/kilianp07/compstation/internal/batch"
)

// maxBody bounds POST /api/evaluate payloads.
const maxBody = 1 << 20

// Evaluator runs one job through the engine, its events and archive.
type Evaluator interface {
	Evaluate(ctx context.Context, job batch.Job) (batch.Outcome, error)
}

// NewHistoryHandler exposes archived evaluations via GET /api/evaluations.
// Supported filters: start and end (RFC 3339), station_id,
// configuration_id, run_id, error_kind and feasible.
func NewHistoryHandler(store evallog.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []evallog.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}

func parseQuery(r *http.Request) (evallog.Query, error) {
	v := r.URL.Query()
	q := evallog.Query{
		StationID:       v.Get("station_id"),
		ConfigurationID: v.Get("configuration_id"),
		RunID:           v.Get("run_id"),
		ErrorKind:       model.ErrorKind(v.Get("error_kind")),
	}
	var err error
	if s := v.Get("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			return q, err
		}
	}
	if s := v.Get("feasible"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, err
		}
		q.Feasible = &b
	}
	return q, nil
}

// NewEvaluateHandler evaluates the JSON request posted to /api/evaluate.
// The body uses the MQTT request format and the reply the MQTT response
// format. Malformed requests are answered with 400, evaluations with 200
// whether feasible or not.
func NewEvaluateHandler(eval Evaluator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req, err := coremqtt.DecodeRequest(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, coremqtt.NewResponse(req, nil, err, 0, time.Now()))
			return
		}
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}
		out, err := eval.Evaluate(r.Context(), batch.Job{ID: req.RequestID, StationID: req.StationID, Request: req.Request})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, context.Canceled) {
				status = http.StatusServiceUnavailable
			}
			http.Error(w, err.Error(), status)
			return
		}
		status := http.StatusOK
		if model.Classify(out.Err) == model.KindInvalidRequest {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, coremqtt.NewResponse(req, out.Result, out.Err, out.Duration, time.Now()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
