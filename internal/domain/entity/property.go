package entity

import (
	"github.com/staymate/staymate-bff/internal/domain/valueobject"
)

// Property - объявление об аренде.
type Property struct {
	ID           int64                      `json:"id"`
	Title        string                     `json:"title"`
	Description  string                     `json:"description,omitempty"`
	Location     string                     `json:"location"`
	Price        string                     `json:"price"`
	PriceAmount  float64                    `json:"priceAmount"`
	Beds         int                        `json:"beds"`
	Baths        int                        `json:"baths"`
	Sqft         int                        `json:"sqft"`
	Rating       float64                    `json:"rating"`
	Verified     bool                       `json:"verified"`
	Status       valueobject.PropertyStatus `json:"status"`
	OwnerID      int64                      `json:"ownerId"`
	OwnerName    string                     `json:"ownerName"`
	ImageURL     string                     `json:"imageUrl"`
	Images       []string                   `json:"images,omitempty"`
	Latitude     *float64                   `json:"latitude,omitempty"`
	Longitude    *float64                   `json:"longitude,omitempty"`
	PropertyType string                     `json:"propertyType,omitempty"`
	Saved        bool                       `json:"isSaved"`
}

func (p Property) Key() int64 { return p.ID }

func (p Property) StatusValue() valueobject.Status { return p.Status }

// WithSaved возвращает копию с переключённым флагом избранного.
func (p Property) WithSaved(saved bool) Property {
	p.Saved = saved
	return p
}
