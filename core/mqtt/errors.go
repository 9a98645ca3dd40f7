package mqtt

import "errors"

// ErrInvalidTopic is returned for request ids or prefixes that cannot form
// a valid MQTT topic.
var ErrInvalidTopic = errors.New("invalid topic")
