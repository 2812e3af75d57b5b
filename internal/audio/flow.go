package audio

import "github.com/willywotz/micswitch/internal/coreaudio"

// defaultFlow is the flow whose communications default becomes State.Default.
// Watching all flows reports the capture side.
func defaultFlow(watched coreaudio.DataFlow) coreaudio.DataFlow {
	if watched == coreaudio.AllFlows {
		return coreaudio.Capture
	}
	return watched
}

// defaultChangeMatters filters default device notifications. The OS only
// ever reports Render or Capture, so AllFlows accepts both.
func defaultChangeMatters(watched, flow coreaudio.DataFlow, role coreaudio.Role) bool {
	if role != coreaudio.Communications {
		return false
	}
	return watched == coreaudio.AllFlows || flow == watched
}
