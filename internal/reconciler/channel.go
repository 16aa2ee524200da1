package reconciler

// Channel identifies one of the head unit's connection mechanisms.
type Channel int

const (
	// ChannelSession is the rich template/screen UI connection.
	ChannelSession Channel = iota
	// ChannelBrowse is the media-browse + now-playing only connection.
	ChannelBrowse
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelSession:
		return "session"
	case ChannelBrowse:
		return "browse"
	default:
		return "unknown"
	}
}

// ConnectionKind is the lifecycle edge of a connection event.
type ConnectionKind int

const (
	Connected ConnectionKind = iota
	Disconnected
)

// String returns the kind name.
func (k ConnectionKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ConnectionEvent is a head unit lifecycle event on one channel.
type ConnectionEvent struct {
	Channel Channel
	Kind    ConnectionKind
}
