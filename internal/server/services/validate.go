package services

import (
	"regexp"
	"unicode/utf8"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/server/models"
)

var (
	personNameRe = regexp.MustCompile(`^[\p{L} -]{1,64}$`)
	nicknameRe   = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,32}$`)
	emailRe      = regexp.MustCompile("^[a-zA-Z0-9_!#$%&'*+/=?`{|}~^.-]+@[a-zA-Z0-9.-]+$")
	phoneRe      = regexp.MustCompile(`^(\+\d{1,3}( )?)?((\(\d{1,3}\))|\d{1,3})[- .]?\d{3,4}[- .]?\d{4}$`)
	addressRe    = regexp.MustCompile(`^[\p{L}0-9 .,/'-]{0,128}$`)
)

const maxAboutLength = 500

// ValidateProfilePatch checks every field of p and reports the first
// offending one. Name, surname and nickname are required; email and phone
// may be left empty.
func ValidateProfilePatch(p models.ProfilePatch) error {
	switch {
	case !personNameRe.MatchString(p.Name):
		return common.NewValidationError("name", "1-64 letters, spaces or hyphens")
	case !personNameRe.MatchString(p.Surname):
		return common.NewValidationError("surname", "1-64 letters, spaces or hyphens")
	case !nicknameRe.MatchString(p.Nickname):
		return common.NewValidationError("nickname", "1-32 latin letters, digits, '.', '_' or '-'")
	case p.Email != "" && !emailRe.MatchString(p.Email):
		return common.NewValidationError("email", "must look like local@domain")
	case p.Phone != "" && !phoneRe.MatchString(p.Phone):
		return common.NewValidationError("phone", "not a phone number")
	case !addressRe.MatchString(p.Address):
		return common.NewValidationError("address", "at most 128 letters, digits or . , / ' -")
	case utf8.RuneCountInString(p.About) > maxAboutLength:
		return common.NewValidationError("about", "at most 500 characters")
	}
	return nil
}
