package entity

import (
	"github.com/staymate/staymate-bff/internal/domain/valueobject"
)

type Booking struct {
	ID               int64                     `json:"id"`
	TenantID         int64                     `json:"tenantId"`
	TenantName       string                    `json:"tenantName"`
	LandlordID       int64                     `json:"landlordId"`
	LandlordName     string                    `json:"landlordName"`
	PropertyID       int64                     `json:"propertyId"`
	PropertyTitle    string                    `json:"propertyTitle"`
	PropertyLocation string                    `json:"propertyLocation,omitempty"`
	PropertyImageURL string                    `json:"propertyImageUrl,omitempty"`
	StartDate        valueobject.Timestamp     `json:"startDate"`
	EndDate          valueobject.Timestamp     `json:"endDate"`
	CheckInTime      valueobject.Timestamp     `json:"checkInTime"`
	CheckOutTime     valueobject.Timestamp     `json:"checkOutTime"`
	Status           valueobject.BookingStatus `json:"status"`
	Notes            string                    `json:"notes,omitempty"`
	CreatedAt        valueobject.Timestamp     `json:"createdAt"`
	UpdatedAt        valueobject.Timestamp     `json:"updatedAt"`
}

func (b Booking) Key() int64 { return b.ID }

func (b Booking) StatusValue() valueobject.Status { return b.Status }
