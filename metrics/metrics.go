package metrics

import "time"

// Event names recorded by the receive components.
const (
	EventBuildUnified      = "build_unified"
	EventBuildFallback     = "build_fallback"
	EventBuildFailed       = "build_failed"
	EventTagResolveFailed  = "tag_resolution_failed"
	EventPollLookupError   = "poll_lookup_error"
	EventSettled           = "settled"
	EventSubscriberDropped = "subscriber_dropped"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
