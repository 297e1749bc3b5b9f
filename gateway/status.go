package gateway

// Status is the gateway connection's lifecycle state.
type Status int32

const (
	StatusClosed Status = iota
	StatusConnecting
	StatusIdentifying
	StatusResuming
	StatusConnected
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusConnecting:
		return "connecting"
	case StatusIdentifying:
		return "identifying"
	case StatusResuming:
		return "resuming"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
