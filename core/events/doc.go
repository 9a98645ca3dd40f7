// Package events defines the evaluation events emitted on the event bus.
//
// Available event types:
//   - EvaluationEvent: one station evaluation and its outcome
//   - BatchEvent: a finished batch run
package events
