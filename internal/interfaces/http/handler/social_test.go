package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playhub/backend/internal/application/chat"
	"github.com/playhub/backend/internal/application/profile"
	domainchat "github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/social"
	"github.com/playhub/backend/internal/interfaces/http/dto"
	"github.com/playhub/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_FollowGraph(t *testing.T) {
	s := newAPIServer(t)
	aliceToken, _ := s.signUp(t, "alice")
	s.signUp(t, "bob")

	rec, resp := s.do(t, call{method: http.MethodPost, path: "/api/v1/users/bob/follow", token: aliceToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[profile.ProfileDTO](t, resp.Data).FollowerCount)

	// following twice changes nothing
	rec, resp = s.do(t, call{method: http.MethodPost, path: "/api/v1/users/bob/follow", token: aliceToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[profile.ProfileDTO](t, resp.Data).FollowerCount)
	assert.Len(t, s.events.EventsOfType(social.EventTypeUserFollowed), 1)

	rec, resp = s.do(t, call{method: http.MethodGet, path: "/api/v1/users/bob", token: aliceToken})
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[profile.ProfileDTO](t, resp.Data)
	require.NotNil(t, p.IsFollowing)
	assert.True(t, *p.IsFollowing)

	rec, resp = s.do(t, call{method: http.MethodGet, path: "/api/v1/users/bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[profile.ProfileDTO](t, resp.Data).IsFollowing)

	rec, resp = s.do(t, call{method: http.MethodPost, path: "/api/v1/users/alice/follow", token: aliceToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)

	rec, _ = s.do(t, call{method: http.MethodDelete, path: "/api/v1/users/bob/follow", token: aliceToken})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = s.do(t, call{method: http.MethodGet, path: "/api/v1/users/nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	s := newAPIServer(t)
	token, _ := s.signUp(t, "painter")

	rec, resp := s.do(t, call{
		method: http.MethodPatch,
		path:   "/api/v1/profile",
		token:  token,
		body:   map[string]string{"bio": "pixel art", "display_name": "The Painter"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[profile.ProfileDTO](t, resp.Data)
	assert.Equal(t, "pixel art", p.Bio)
	assert.Equal(t, "The Painter", p.DisplayName)

	rec, _ = s.do(t, call{method: http.MethodPatch, path: "/api/v1/profile", body: map[string]string{"bio": "x"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatHandler_Conversation(t *testing.T) {
	s := newAPIServer(t)
	aliceToken, _ := s.signUp(t, "alice")
	bobToken, bob := s.signUp(t, "bob")
	eveToken, _ := s.signUp(t, "eve")

	start := call{method: http.MethodPost, path: "/api/v1/conversations", token: aliceToken, body: map[string]any{"participant_id": bob.ID}}
	rec, resp := s.do(t, start)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	conv := decode[chat.ConversationDTO](t, resp.Data)
	assert.Equal(t, "bob", conv.Participant.Username)

	rec, resp = s.do(t, start)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, conv.ID, decode[chat.ConversationDTO](t, resp.Data).ID)

	messages := "/api/v1/conversations/" + conv.ID.String() + "/messages"
	for _, text := range []string{"  gg  ", "rematch?"} {
		rec, _ = s.do(t, call{method: http.MethodPost, path: messages, token: aliceToken, body: map[string]string{"content": text}})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	assert.Len(t, s.events.EventsOfType(domainchat.EventTypeMessageSent), 2)

	rec, resp = s.do(t, call{method: http.MethodGet, path: messages + "?limit=10", token: bobToken})
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]chat.MessageDTO](t, resp.Data)
	require.Len(t, history, 2)
	assert.Equal(t, "gg", history[0].Content)
	assert.Equal(t, "rematch?", history[1].Content)

	rec, resp = s.do(t, call{method: http.MethodGet, path: "/api/v1/conversations/unread-count", token: bobToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[handler.CountData](t, resp.Data).Count)

	rec, resp = s.do(t, call{method: http.MethodGet, path: messages, token: eveToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)

	rec, resp = s.do(t, call{method: http.MethodGet, path: messages + "?before=yesterday", token: bobToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)

	rec, _ = s.do(t, call{method: http.MethodPost, path: messages, token: aliceToken, body: map[string]string{"content": ""}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationHandler_List(t *testing.T) {
	s := newAPIServer(t)
	token, _ := s.signUp(t, "reader")

	rec, resp := s.do(t, call{method: http.MethodGet, path: "/api/v1/notifications?unread_only=true", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(0), resp.Meta.Total)

	rec, resp = s.do(t, call{method: http.MethodPost, path: "/api/v1/notifications/" + uuid.NewString() + "/read", token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)

	rec, resp = s.do(t, call{method: http.MethodPost, path: "/api/v1/notifications/not-a-uuid/read", token: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
}

func TestSystemHandler_Health(t *testing.T) {
	up := handler.PingFunc(func(context.Context) error { return nil })
	down := handler.PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		db     handler.Pinger
		redis  handler.Pinger
		status int
		state  string
	}{
		{name: "all up", db: up, redis: up, status: http.StatusOK, state: "ok"},
		{name: "redis not configured", db: up, status: http.StatusOK, state: "ok"},
		{name: "redis down", db: up, redis: down, status: http.StatusOK, state: "degraded"},
		{name: "database down", db: down, redis: up, status: http.StatusServiceUnavailable, state: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewSystemHandler("PlayHub API", "1.2.3", tt.db, tt.redis)
			engine := gin.New()
			engine.GET("/health", h.Health)

			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.status, rec.Code)

			body := decode[handler.HealthResponse](t, rec.Body.Bytes())
			assert.Equal(t, tt.state, body.Status)
			assert.Equal(t, "1.2.3", body.Version)
		})
	}
}
