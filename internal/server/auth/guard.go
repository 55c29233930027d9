package auth

import "github.com/dmitrijs2005/userservice/internal/common"

// Authorize allows access only when the authenticated user is the resource
// owner. A missing identity is never allowed.
func Authorize(authenticatedUserID, resourceOwnerID string) error {
	if authenticatedUserID == "" {
		return common.ErrUnauthenticated
	}
	if resourceOwnerID == "" || authenticatedUserID != resourceOwnerID {
		return common.ErrForbidden
	}
	return nil
}
