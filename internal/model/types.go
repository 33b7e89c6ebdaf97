package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Placeholder substitutes for any backend field that arrives empty, so table
// rendering stays total.
const Placeholder = "N/A"

// FlexString decodes a JSON value that may arrive as a string or a number.
// The backoffice stores phone numbers inconsistently across documents.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// User is a backoffice user account as returned by the upstream API.
type User struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Phone    FlexString `json:"phone"`
	UserType string     `json:"userType"`
}

// Contact is a sales contact document as returned by the upstream API.
// Saved is a client-only pin; the upstream echoes it back on a best-effort
// basis only.
type Contact struct {
	ID                   string     `json:"_id"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Email                string     `json:"email"`
	Country              string     `json:"country"`
	Phone                FlexString `json:"phone"`
	JobTitle             string     `json:"jobTitle"`
	Website              string     `json:"website"`
	BusinessType         string     `json:"businessType"`
	CompanySize          string     `json:"companySize"`
	CountryHQ            string     `json:"countryHQ"`
	InterestedIn         string     `json:"interestedIn"`
	GeographiesTargeting string     `json:"geographiesTargeting"`
	HearAboutUs          string     `json:"hearAboutUs"`
	Saved                bool       `json:"saved"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// ContactDraft is the browser-submitted form for creating or editing a contact.
type ContactDraft struct {
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Email                string `json:"email"`
	Country              string `json:"country"`
	Phone                string `json:"phone"`
	JobTitle             string `json:"jobTitle"`
	Website              string `json:"website"`
	BusinessType         string `json:"businessType"`
	CompanySize          string `json:"companySize"`
	CountryHQ            string `json:"countryHQ"`
	InterestedIn         string `json:"interestedIn"`
	GeographiesTargeting string `json:"geographiesTargeting"`
	HearAboutUs          string `json:"hearAboutUs"`
	Saved                bool   `json:"saved"`
}

// SignupDraft holds the signup form between the details step and OTP
// verification. Cleared on success or explicit back navigation.
type SignupDraft struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	UserType        string `json:"userType"`
}

// UserDraft is the browser-submitted form for creating or editing a user from
// the users screen. Password is omitted from updates when left empty.
type UserDraft struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

// SessionRecord is the authenticated state written at login: the upstream
// bearer token plus a denormalized copy of the user. Exactly one persistence
// area owns a given record.
type SessionRecord struct {
	Token            string    `json:"token"`
	User             User      `json:"user"`
	SidebarCollapsed bool      `json:"sidebarCollapsed"`
	CreatedAt        time.Time `json:"createdAt"`
}

// OrPlaceholder returns s, or the literal placeholder when s is empty.
func OrPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// DisplayDate renders a backend timestamp the way the dashboard shows it.
func DisplayDate(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Format("2006-01-02")
}
