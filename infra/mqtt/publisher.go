package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/compstation/core/monitoring"
	coremqtt "github.com/kilianp07/compstation/core/mqtt"
)

// publish sends payload with exponential backoff between attempts. The
// last error is reported to the monitor.
func (s *Service) publish(topic string, qos byte, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		token := s.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		s.logger.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, publishErr)
		if attempt < s.maxRetries {
			time.Sleep(s.backoff * time.Duration(1<<attempt))
		}
	}
	monitoring.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// respond publishes resp on its request's reply topic, or on the errors
// topic when the request id is unknown.
func (s *Service) respond(resp coremqtt.EvaluationResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	topic := s.prefix + coremqtt.ErrorsSuffix
	if resp.RequestID != "" {
		topic = coremqtt.ResponseTopic(s.prefix, resp.RequestID)
	}
	return s.publish(topic, s.cfg.qos("response"), payload)
}
