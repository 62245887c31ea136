package entity

import (
	"github.com/staymate/staymate-bff/internal/domain/valueobject"
)

// RoommatePost - объявление о поиске соседа.
type RoommatePost struct {
	ID               int64                          `json:"id"`
	UserID           int64                          `json:"userId"`
	UserName         string                         `json:"userName"`
	UserAvatar       string                         `json:"userAvatar,omitempty"`
	Location         string                         `json:"location"`
	Budget           *float64                       `json:"budget,omitempty"`
	MoveInDate       valueobject.Timestamp          `json:"moveInDate"`
	Bio              string                         `json:"bio,omitempty"`
	GenderPreference string                         `json:"genderPreference,omitempty"`
	Smoking          *bool                          `json:"smoking,omitempty"`
	Pets             *bool                          `json:"pets,omitempty"`
	Occupation       string                         `json:"occupation,omitempty"`
	Interests        []string                       `json:"interests,omitempty"`
	Status           valueobject.RoommatePostStatus `json:"status"`
	MatchScore       *int                           `json:"matchScore,omitempty"`
	MatchExplanation string                         `json:"matchExplanation,omitempty"`
	CreatedAt        valueobject.Timestamp          `json:"createdAt"`
	Saved            bool                           `json:"isSaved"`
}

func (r RoommatePost) Key() int64 { return r.ID }

func (r RoommatePost) StatusValue() valueobject.Status { return r.Status }

func (r RoommatePost) WithSaved(saved bool) RoommatePost {
	r.Saved = saved
	return r
}

// Match - пост соседа из подборки /matches; оценка совместимости обязательна.
type Match struct {
	RoommatePost
}

// Score возвращает оценку совместимости (0, если бэкенд её не прислал).
func (m Match) Score() int {
	if m.MatchScore == nil {
		return 0
	}
	return *m.MatchScore
}
