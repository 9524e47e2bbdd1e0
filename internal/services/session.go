package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/render"
	"github.com/yungbote/kydy-backend/internal/repos"
	"github.com/yungbote/kydy-backend/internal/types"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionNoLesson = errors.New("session has no associated lesson")
)

// SessionInput is the client-supplied session payload. Messages and Notes are
// opaque JSON kept as submitted.
type SessionInput struct {
	Topic       string         `json:"topic"`
	LessonID    string         `json:"lesson_id"`
	Messages    datatypes.JSON `json:"messages"`
	Notes       datatypes.JSON `json:"notes"`
	SessionTime int            `json:"session_time"`
}

type SessionService interface {
	Save(ctx context.Context, input SessionInput) (*types.Session, error)
	Update(ctx context.Context, sessionID string, input SessionInput) (*types.Session, error)
	Get(ctx context.Context, sessionID string) (*types.Session, error)
	List(ctx context.Context) ([]*types.Session, error)
	Render(ctx context.Context, sessionID, mode string) (string, error)
}

type sessionService struct {
	log      *logger.Logger
	sessions repos.SessionRepo
	lessons  LessonService
	rendered RenderedStore
}

func NewSessionService(sessions repos.SessionRepo, lessons LessonService, rendered RenderedStore, log *logger.Logger) SessionService {
	return &sessionService{
		log:      log.With("service", "SessionService"),
		sessions: sessions,
		lessons:  lessons,
		rendered: rendered,
	}
}

func (s *sessionService) Save(ctx context.Context, input SessionInput) (*types.Session, error) {
	session := &types.Session{
		SessionID:   uuid.NewString()[:8],
		Topic:       input.Topic,
		LessonID:    input.LessonID,
		Messages:    input.Messages,
		Notes:       input.Notes,
		SessionTime: input.SessionTime,
	}
	created, err := s.sessions.Create(ctx, nil, session)
	if err != nil {
		return nil, err
	}
	s.refreshRendered(ctx, created)
	s.log.Info("Session saved", "session_id", created.SessionID, "lesson_id", created.LessonID)
	return created, nil
}

func (s *sessionService) Update(ctx context.Context, sessionID string, input SessionInput) (*types.Session, error) {
	session, err := s.sessions.GetBySessionID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	session.Topic = input.Topic
	session.LessonID = input.LessonID
	session.Messages = input.Messages
	session.Notes = input.Notes
	session.SessionTime = input.SessionTime

	updated, err := s.sessions.Update(ctx, nil, session)
	if err != nil {
		return nil, err
	}
	s.refreshRendered(ctx, updated)
	return updated, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	session, err := s.sessions.GetBySessionID(ctx, nil, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionService) List(ctx context.Context) ([]*types.Session, error) {
	return s.sessions.List(ctx, nil)
}

// Render serves the session's lesson playback. Full mode prefers the
// persisted file and lazily backfills it; embed mode always recompiles.
func (s *sessionService) Render(ctx context.Context, sessionID, mode string) (string, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session.LessonID == "" {
		return "", ErrSessionNoLesson
	}

	if mode == render.ModeFull {
		if html, ok := s.rendered.ReadSession(sessionID); ok {
			return html, nil
		}
	}

	html, err := s.lessons.Render(ctx, session.LessonID, mode)
	if err != nil {
		return "", err
	}
	if mode == render.ModeFull {
		if writeErr := s.rendered.WriteSession(sessionID, html); writeErr != nil {
			s.log.Warn("Failed to write rendered session file", "session_id", sessionID, "error", writeErr)
		}
	}
	return html, nil
}

// refreshRendered keeps the session's rendered file in step with its lesson.
// Best effort: a session without a renderable lesson is still a valid save.
func (s *sessionService) refreshRendered(ctx context.Context, session *types.Session) {
	if session.LessonID == "" {
		return
	}
	html, err := s.lessons.Render(ctx, session.LessonID, render.ModeFull)
	if err != nil {
		s.log.Warn("Failed to render session lesson", "session_id", session.SessionID, "lesson_id", session.LessonID, "error", err)
		return
	}
	session.RenderedHTML = html
	if _, err := s.sessions.Update(ctx, nil, session); err != nil {
		s.log.Warn("Failed to persist session rendered html", "session_id", session.SessionID, "error", err)
	}
	if err := s.rendered.WriteSession(session.SessionID, html); err != nil {
		s.log.Warn("Failed to write rendered session file", "session_id", session.SessionID, "error", err)
	}
}
