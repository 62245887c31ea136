package entity

import (
	"github.com/staymate/staymate-bff/internal/domain/valueobject"
	"github.com/staymate/staymate-bff/internal/pkg/apperror"
)

type Conversation struct {
	ID                   int64                 `json:"id"`
	OtherParticipantID   int64                 `json:"otherParticipantId"`
	OtherParticipantName string                `json:"otherParticipantName"`
	OtherOnline          bool                  `json:"otherParticipantOnline"`
	Subject              string                `json:"subject,omitempty"`
	PropertyID           *int64                `json:"propertyId,omitempty"`
	PropertyTitle        string                `json:"propertyTitle,omitempty"`
	LastMessage          string                `json:"lastMessage,omitempty"`
	LastMessageAt        valueobject.Timestamp `json:"lastMessageAt"`
	UnreadCount          int                   `json:"unreadCount"`
	CreatedAt            valueobject.Timestamp `json:"createdAt"`
}

func (c Conversation) Key() int64 { return c.ID }

// NewConversationRequest - тело запроса на создание диалога.
type NewConversationRequest struct {
	RecipientID    int64  `json:"recipientId"`
	PropertyID     *int64 `json:"propertyId,omitempty"`
	Subject        string `json:"subject,omitempty"`
	InitialMessage string `json:"initialMessage"`
}

func NewConversation(recipientID, selfID int64, propertyID *int64, subject, message string) (*NewConversationRequest, error) {
	if recipientID == selfID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя создать беседу с самим собой")
	}
	if message == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "сообщение не может быть пустым")
	}
	return &NewConversationRequest{
		RecipientID:    recipientID,
		PropertyID:     propertyID,
		Subject:        subject,
		InitialMessage: message,
	}, nil
}
