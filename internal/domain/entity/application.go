package entity

import (
	"github.com/staymate/staymate-bff/internal/domain/valueobject"
)

// Application - заявка арендатора на объект.
type Application struct {
	ID               int64                         `json:"id"`
	SenderID         int64                         `json:"senderId"`
	SenderName       string                        `json:"senderName"`
	SenderEmail      string                        `json:"senderEmail,omitempty"`
	ReceiverID       int64                         `json:"receiverId"`
	ReceiverName     string                        `json:"receiverName"`
	PropertyID       int64                         `json:"propertyId"`
	PropertyTitle    string                        `json:"propertyTitle"`
	PropertyLocation string                        `json:"propertyLocation,omitempty"`
	Status           valueobject.ApplicationStatus `json:"status"`
	Message          string                        `json:"message,omitempty"`
	CreatedAt        valueobject.Timestamp         `json:"createdAt"`
	UpdatedAt        valueobject.Timestamp         `json:"updatedAt"`
}

func (a Application) Key() int64 { return a.ID }

func (a Application) StatusValue() valueobject.Status { return a.Status }
