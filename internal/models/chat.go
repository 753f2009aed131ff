package models

import "github.com/google/uuid"

// Message roles stored in the messages table.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultChatTitle is given to chats created implicitly by a first message.
const DefaultChatTitle = "New Chat"

type Chat struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"created_at"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    uuid.UUID `json:"chat_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
}

// PostMessageRequest is the payload of POST /chat. A missing chat_id starts a new chat.
type PostMessageRequest struct {
	Message string  `json:"message"`
	ChatID  *string `json:"chat_id"`
}

type PostMessageResponse struct {
	ChatID uuid.UUID `json:"chat_id"`
}

// MessageRequest carries a single "message" field; the title, stream and rename
// endpoints all share it.
type MessageRequest struct {
	Message string `json:"message"`
}

type TitleResponse struct {
	Title string `json:"title"`
}

type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

type RenameResponse struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
