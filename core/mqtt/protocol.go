// Package mqtt defines the wire contract of the MQTT evaluation service:
// request and response payloads and the topics they travel on.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/compstation/core/model"
	"github.com/kilianp07/compstation/core/station"
)

const (
	requestSuffix  = "/request"
	responseSuffix = "/response/"

	// ErrorsSuffix names the topic receiving replies to payloads that could
	// not be decoded far enough to learn their request id.
	ErrorsSuffix = "/errors"
	// StatusSuffix names the retained service status topic.
	StatusSuffix = "/status"

	StatusOnline  = "online"
	StatusOffline = "offline"
)

// EvaluationRequest asks for one station evaluation. The embedded request
// fields are flattened into the JSON object.
type EvaluationRequest struct {
	RequestID string `json:"request_id"`
	StationID string `json:"station_id"`
	station.Request
}

// ErrorBody is the classified form of an evaluation failure.
type ErrorBody struct {
	Kind     model.ErrorKind `json:"kind"`
	Boundary model.Boundary  `json:"boundary,omitempty"`
	Message  string          `json:"message"`
}

// EvaluationResponse answers an EvaluationRequest. Exactly one of Result and
// Error is set.
type EvaluationResponse struct {
	RequestID  string          `json:"request_id"`
	StationID  string          `json:"station_id"`
	Feasible   bool            `json:"feasible"`
	Result     *station.Result `json:"result,omitempty"`
	Error      *ErrorBody      `json:"error,omitempty"`
	DurationMS float64         `json:"duration_ms"`
	Timestamp  int64           `json:"timestamp"`
}

// RequestTopic returns the topic the service subscribes to.
func RequestTopic(prefix string) string { return prefix + requestSuffix }

// ResponseTopic returns the reply topic of a request.
func ResponseTopic(prefix, requestID string) string { return prefix + responseSuffix + requestID }

// ValidatePrefix rejects empty prefixes and prefixes holding wildcards.
func ValidatePrefix(prefix string) error {
	if prefix == "" || strings.ContainsAny(prefix, "+#") || strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("%w: prefix %q", ErrInvalidTopic, prefix)
	}
	return nil
}

// DecodeRequest parses and validates a request payload. A request id, when
// present, must be usable as a single topic level. The returned request
// keeps whatever was decoded even when validation fails, so the caller can
// still reply on the request's own topic.
func DecodeRequest(payload []byte) (EvaluationRequest, error) {
	var req EvaluationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return EvaluationRequest{}, fmt.Errorf("%w: decode payload: %v", model.ErrInvalidRequest, err)
	}
	if strings.ContainsAny(req.RequestID, "/+#") {
		id := req.RequestID
		req.RequestID = ""
		return req, fmt.Errorf("%w: %w: request id %q", model.ErrInvalidRequest, ErrInvalidTopic, id)
	}
	if req.StationID == "" {
		return req, fmt.Errorf("%w: station_id is required", model.ErrInvalidRequest)
	}
	if req.ConfigurationID == "" {
		return req, fmt.Errorf("%w: configuration_id is required", model.ErrInvalidRequest)
	}
	return req, nil
}

// NewResponse builds the reply to req from an evaluation outcome.
func NewResponse(req EvaluationRequest, res *station.Result, err error, d time.Duration, now time.Time) EvaluationResponse {
	resp := EvaluationResponse{
		RequestID:  req.RequestID,
		StationID:  req.StationID,
		DurationMS: float64(d.Microseconds()) / 1000,
		Timestamp:  now.UnixMilli(),
	}
	if err != nil {
		body := &ErrorBody{Kind: model.Classify(err), Message: err.Error()}
		if b, ok := model.BoundaryOf(err); ok {
			body.Boundary = b
		}
		resp.Error = body
		return resp
	}
	resp.Feasible = true
	resp.Result = res
	return resp
}
