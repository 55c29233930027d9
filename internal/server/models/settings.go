package models

// UserSettings holds the per-field visibility flags of a user's public profile.
type UserSettings struct {
	ID                string `json:"-"`
	UserID            string `json:"-"`
	NameVisibility    bool   `json:"nameVisibility"`
	SurnameVisibility bool   `json:"surnameVisibility"`
	EmailVisibility   bool   `json:"emailVisibility"`
	PhoneVisibility   bool   `json:"phoneVisibility"`
	AddressVisibility bool   `json:"addressVisibility"`
	AvatarVisibility  bool   `json:"avatarVisibility"`
}

// DefaultSettings returns settings with every field visible.
func DefaultSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:            userID,
		NameVisibility:    true,
		SurnameVisibility: true,
		EmailVisibility:   true,
		PhoneVisibility:   true,
		AddressVisibility: true,
		AvatarVisibility:  true,
	}
}
