package services

import "github.com/dmitrijs2005/userservice/internal/server/models"

// Project returns the third-party view of u. A nil settings value means the
// owner never changed the defaults, so every field is visible.
func Project(u *models.User, s *models.UserSettings) models.PublicProfile {
	if s == nil {
		s = models.DefaultSettings(u.ID)
	}

	p := models.PublicProfile{
		ID:           u.ID,
		Nickname:     u.Nickname,
		About:        u.About,
		RegisteredAt: u.RegisteredAt,
		Name:         gated(s.NameVisibility, u.Name),
		Surname:      gated(s.SurnameVisibility, u.Surname),
		Email:        gated(s.EmailVisibility, u.Email),
		Phone:        gated(s.PhoneVisibility, u.Phone),
		Address:      gated(s.AddressVisibility, u.Address),
	}

	if s.AvatarVisibility && u.AvatarImageID != nil {
		p.AvatarImageID = gated(true, *u.AvatarImageID)
	}

	return p
}

// gated copies v so the view never aliases the user row.
func gated(visible bool, v string) *string {
	if !visible {
		return nil
	}
	return &v
}
