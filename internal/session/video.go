package session

import (
	"github.com/yungbote/playbook-backend/internal/realtime"
	"github.com/yungbote/playbook-backend/internal/video"
)

func (s *Session) VideoState() VideoState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video
}

// StartVideo begins a video overview. Only one runs per session; a reset cancels it.
func (s *Session) StartVideo() (VideoState, error) {
	if s.store.deps.Video == nil {
		return VideoState{}, ErrNotReady
	}
	v := s.view()
	s.mu.Lock()
	if s.video.Running {
		s.mu.Unlock()
		return VideoState{}, ErrVideoInProgress
	}
	if s.epoch != v.epoch {
		s.mu.Unlock()
		return VideoState{}, ErrInvalidTransition
	}
	events, err := s.store.deps.Video.Run(v.ctx, v.pb, v.biz)
	if err != nil {
		s.mu.Unlock()
		return VideoState{}, err
	}
	s.video = VideoState{Running: true}
	state := s.video
	s.mu.Unlock()

	go s.followVideo(v.epoch, events)
	return state, nil
}

func (s *Session) followVideo(epoch int64, events <-chan video.Event) {
	for e := range events {
		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			continue
		}
		s.video = VideoState{
			Running:      !e.Terminal(),
			Progress:     e.Progress,
			Message:      e.Message,
			DownloadLink: e.DownloadLink,
			Error:        e.Error,
		}
		state := s.video
		s.mu.Unlock()

		event := realtime.SSEEventVideoProgress
		switch {
		case e.Done:
			event = realtime.SSEEventVideoDone
		case e.Error != "":
			event = realtime.SSEEventVideoFailed
		}
		s.gate.send(epoch, func() {
			s.store.emit(s.id, event, map[string]any{"video": state})
		})
	}

	// a run cut short by its context ends without a terminal event
	s.mu.Lock()
	if s.epoch == epoch {
		s.video.Running = false
	}
	s.mu.Unlock()
}
