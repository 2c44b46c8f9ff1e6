package wizard

import "time"

// PassengerType is derived from a passenger's age on the travel date.
type PassengerType string

const (
	PassengerAdult  PassengerType = "Adult"
	PassengerChild  PassengerType = "Child"
	PassengerInfant PassengerType = "Infant"
)

// Passenger is one traveller. Age and type are derived from DateOfBirth and cannot be set.
type Passenger struct {
	Title                string    `json:"title" validate:"required,oneof=Mr Mrs Ms Miss Mstr Dr"`
	FirstName            string    `json:"firstName" validate:"required"`
	LastName             string    `json:"lastName" validate:"required"`
	DateOfBirth          time.Time `json:"dateOfBirth"`
	Gender               string    `json:"gender" validate:"required,oneof=male female other"`
	Nationality          string    `json:"nationality" validate:"required"`
	PassportNumber       string    `json:"passportNumber" validate:"required"`
	PassportExpiry       time.Time `json:"passportExpiry"`
	PassportIssueCountry string    `json:"passportIssueCountry" validate:"required"`

	IsLeadPassenger bool   `json:"isLeadPassenger"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string `json:"phone,omitempty"`

	Dietary       string `json:"dietary,omitempty"`
	Medical       string `json:"medical,omitempty"`
	Accessibility string `json:"accessibility,omitempty"`
	Notes         string `json:"notes,omitempty"`

	RoomPreference string `json:"roomPreference,omitempty"`
	BedPreference  string `json:"bedPreference,omitempty"`
}

// FullName returns first and last name.
func (p Passenger) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age returns completed years at the given date.
func (p Passenger) Age(at time.Time) int {
	if p.DateOfBirth.IsZero() {
		return 0
	}
	years := at.Year() - p.DateOfBirth.Year()
	if at.Month() < p.DateOfBirth.Month() ||
		(at.Month() == p.DateOfBirth.Month() && at.Day() < p.DateOfBirth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// Type classifies the passenger: Adult from 18, Child 2–17, Infant under 2.
func (p Passenger) Type(at time.Time) PassengerType {
	switch age := p.Age(at); {
	case age >= 18:
		return PassengerAdult
	case age >= 2:
		return PassengerChild
	default:
		return PassengerInfant
	}
}
