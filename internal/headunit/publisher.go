package headunit

import (
	"go.uber.org/zap"

	"drivesync/internal/browse"
	"drivesync/internal/surface"
)

// The Server publishes surfaces by broadcasting frames to every attached
// client. Fire-and-forget: a slow or dead client drops the frame and the
// next state change republishes.

func (s *Server) PublishNowPlaying(np surface.NowPlaying) {
	s.broadcast(FrameTypeNowPlaying, "", np)
}

func (s *Server) PublishBrowseTree(tree browse.Tree) {
	s.broadcast(FrameTypeBrowseTree, "", tree)
}

func (s *Server) PublishScreen(screenID string, content any) {
	s.broadcast(FrameTypeScreen, screenID, content)
}

func (s *Server) broadcast(frameType, screenID string, data any) {
	payload, err := marshalFrame(frameType, screenID, data)
	if err != nil {
		s.log.Warn("surface marshal failed",
			zap.String("type", frameType), zap.Error(err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
			s.log.Debug("client send buffer full, frame dropped",
				zap.String("client", c.id))
		}
	}
}

var _ surface.Publisher = (*Server)(nil)
