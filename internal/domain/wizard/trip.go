package wizard

import (
	"time"

	"github.com/google/uuid"
)

// TripType classifies the purpose of a trip.
type TripType string

const (
	TripLeisure     TripType = "leisure"
	TripBusiness    TripType = "business"
	TripHoneymoon   TripType = "honeymoon"
	TripFamily      TripType = "family"
	TripAdventure   TripType = "adventure"
	TripReligious   TripType = "religious"
	TripEducational TripType = "educational"
	TripGroup       TripType = "group"
)

// IsValid returns true if the trip type is recognized.
func (t TripType) IsValid() bool {
	switch t {
	case TripLeisure, TripBusiness, TripHoneymoon, TripFamily,
		TripAdventure, TripReligious, TripEducational, TripGroup:
		return true
	}
	return false
}

// BookingSource records how the request reached the agency.
type BookingSource string

const (
	SourceDirect      BookingSource = "direct"
	SourceWebsite     BookingSource = "website"
	SourcePhone       BookingSource = "phone"
	SourceEmail       BookingSource = "email"
	SourceWalkIn      BookingSource = "walk_in"
	SourceReferral    BookingSource = "referral"
	SourceAgent       BookingSource = "agent"
	SourceSocialMedia BookingSource = "social_media"
)

// IsValid returns true if the booking source is recognized.
func (s BookingSource) IsValid() bool {
	switch s {
	case SourceDirect, SourceWebsite, SourcePhone, SourceEmail,
		SourceWalkIn, SourceReferral, SourceAgent, SourceSocialMedia:
		return true
	}
	return false
}

// EmergencyContact is the person to call while the travellers are away.
type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// GroupBooking holds the group fields, required together when IsGroupBooking is set.
type GroupBooking struct {
	Name          string `json:"name"`
	LeaderName    string `json:"leaderName"`
	LeaderContact string `json:"leaderContact"`
}

// TripDetails describes the travel window, party and trip classification.
type TripDetails struct {
	TravelStartDate   time.Time        `json:"travelStartDate"`
	TravelEndDate     time.Time        `json:"travelEndDate"`
	DestinationCityID uuid.UUID        `json:"destinationCityId"`
	NumAdults         int              `json:"numAdults"`
	NumChildren       int              `json:"numChildren"`
	ChildrenAges      []int            `json:"childrenAges"`
	Currency          string           `json:"currency"`
	TripType          TripType         `json:"tripType"`
	BookingSource     BookingSource    `json:"bookingSource"`
	EmergencyContact  EmergencyContact `json:"emergencyContact"`
	IsGroupBooking    bool             `json:"isGroupBooking"`
	Group             *GroupBooking    `json:"group,omitempty"`
	SpecialRequests   string           `json:"specialRequests,omitempty"`
}

// Nights returns the number of nights between start and end.
func (t TripDetails) Nights() int {
	if t.TravelStartDate.IsZero() || t.TravelEndDate.IsZero() {
		return 0
	}
	n := int(t.TravelEndDate.Sub(t.TravelStartDate).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// TotalTravellers is adults plus children.
func (t TripDetails) TotalTravellers() int {
	return t.NumAdults + t.NumChildren
}

// normalize makes ChildrenAges exactly NumChildren long: growing pads with age 0,
// shrinking truncates.
func (t *TripDetails) normalize() {
	if t.NumChildren < 0 {
		t.NumChildren = 0
	}
	ages := make([]int, t.NumChildren)
	copy(ages, t.ChildrenAges)
	t.ChildrenAges = ages
	if t.TripType == "" {
		t.TripType = TripLeisure
	}
	if t.BookingSource == "" {
		t.BookingSource = SourceDirect
	}
}

func (t TripDetails) clone() TripDetails {
	c := t
	c.ChildrenAges = append([]int(nil), t.ChildrenAges...)
	if t.Group != nil {
		g := *t.Group
		c.Group = &g
	}
	return c
}
