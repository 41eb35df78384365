package capture

// State is the position of a run in the capture workflow:
//
//	Idle -> Capturing -> Uploading -> Polling -> Downloading -> Announced -> Idle
//
// Any failure moves the run to Failed and then back to Idle.
type State string

const (
	StateIdle        State = "idle"
	StateCapturing   State = "capturing"
	StateUploading   State = "uploading"
	StatePolling     State = "polling"
	StateDownloading State = "downloading"
	StateAnnounced   State = "announced"
	StateFailed      State = "failed"
)
