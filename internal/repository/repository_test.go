package repository

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phakamani-backend/internal/models"
	"phakamani-backend/internal/repository/repositorytest"
)

func newTestClient(t *testing.T) (*Client, *repositorytest.Server) {
	t.Helper()
	srv := repositorytest.NewServer()
	t.Cleanup(srv.Close)
	return NewClient(srv.RESTEndpoint(), repositorytest.ServiceKey, 5*time.Second), srv
}

func TestProfileRepo_GetAndCreate(t *testing.T) {
	client, _ := newTestClient(t)
	repo := NewProfileRepo(client)
	ctx := context.Background()
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	p := &models.Profile{ID: id, Email: "admin@example.com", FullName: "Admin User"}
	require.NoError(t, repo.Create(ctx, p))

	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "admin@example.com", got.Email)
	assert.Equal(t, "Admin User", got.FullName)
}

func TestChatRepo_ListNewestFirst(t *testing.T) {
	client, _ := newTestClient(t)
	chats := NewChatRepo(client)
	ctx := context.Background()
	owner := uuid.New()

	first, err := chats.Create(ctx, owner, "first")
	require.NoError(t, err)
	second, err := chats.Create(ctx, owner, "second")
	require.NoError(t, err)

	list, err := chats.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, owner, list[0].UserID)
	assert.False(t, list[0].CreatedAt.IsZero())
}

func TestChatRepo_UpdateTitle(t *testing.T) {
	client, srv := newTestClient(t)
	chats := NewChatRepo(client)
	ctx := context.Background()

	chat, err := chats.Create(ctx, uuid.New(), models.DefaultChatTitle)
	require.NoError(t, err)
	require.NoError(t, chats.UpdateTitle(ctx, chat.ID, "Go Concurrency"))

	rows := srv.Rows("chats")
	require.Len(t, rows, 1)
	assert.Equal(t, "Go Concurrency", rows[0]["title"])
}

func TestMessageRepo_AppendAndListOldestFirst(t *testing.T) {
	client, _ := newTestClient(t)
	chats := NewChatRepo(client)
	messages := NewMessageRepo(client)
	ctx := context.Background()

	chat, err := chats.Create(ctx, uuid.New(), models.DefaultChatTitle)
	require.NoError(t, err)

	_, err = messages.Append(ctx, chat.ID, models.RoleUser, "hello")
	require.NoError(t, err)
	_, err = messages.Append(ctx, chat.ID, models.RoleAssistant, "hi there")
	require.NoError(t, err)

	list, err := messages.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.RoleUser, list[0].Role)
	assert.Equal(t, "hello", list[0].Content)
	assert.Equal(t, models.RoleAssistant, list[1].Role)
	assert.Equal(t, chat.ID, list[1].ChatID)
}

func TestMessageRepo_DeleteByChat(t *testing.T) {
	client, _ := newTestClient(t)
	chats := NewChatRepo(client)
	messages := NewMessageRepo(client)
	ctx := context.Background()

	chat, err := chats.Create(ctx, uuid.New(), models.DefaultChatTitle)
	require.NoError(t, err)
	_, err = messages.Append(ctx, chat.ID, models.RoleUser, "bye")
	require.NoError(t, err)

	require.NoError(t, messages.DeleteByChat(ctx, chat.ID))
	require.NoError(t, chats.Delete(ctx, chat.ID))

	list, err := messages.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClient_RejectedError(t *testing.T) {
	client, srv := newTestClient(t)
	srv.FailNext(http.MethodPost, "chats", http.StatusBadRequest)

	_, err := NewChatRepo(client).Create(context.Background(), uuid.New(), "x")
	require.Error(t, err)

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusBadRequest, rejected.Status)
	assert.Equal(t, "POST chats", rejected.Op)
	assert.Contains(t, rejected.Body, "injected failure")
}

func TestClient_RejectedStatusOnUpdateAndDelete(t *testing.T) {
	client, srv := newTestClient(t)
	chats := NewChatRepo(client)
	srv.FailNext(http.MethodPatch, "chats", http.StatusServiceUnavailable)
	srv.FailNext(http.MethodDelete, "chats", http.StatusInternalServerError)

	var rejected *RejectedError
	err := chats.UpdateTitle(context.Background(), uuid.New(), "Renamed")
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusServiceUnavailable, rejected.Status)
	assert.Equal(t, "PATCH chats", rejected.Op)

	err = chats.Delete(context.Background(), uuid.New())
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusInternalServerError, rejected.Status)
}

func TestClient_CanceledContextIsUnavailable(t *testing.T) {
	client, srv := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChatRepo(client).List(ctx)

	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, srv.Requests(http.MethodGet, "chats"))
}

func TestClient_RejectsWrongCredential(t *testing.T) {
	_, srv := newTestClient(t)
	client := NewClient(srv.RESTEndpoint(), "wrong-key", 5*time.Second)

	_, err := NewChatRepo(client).List(context.Background())

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusUnauthorized, rejected.Status)
}

func TestClient_UnavailableError(t *testing.T) {
	srv := repositorytest.NewServer()
	endpoint := srv.RESTEndpoint()
	srv.Close()

	client := NewClient(endpoint, repositorytest.ServiceKey, time.Second)
	_, err := NewChatRepo(client).List(context.Background())

	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.NotContains(t, err.Error(), repositorytest.ServiceKey)
}

func TestMessageRepo_AppendToMissingChatIsRejected(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := NewMessageRepo(client).Append(context.Background(), uuid.New(), models.RoleUser, "orphan")

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusConflict, rejected.Status)
}
