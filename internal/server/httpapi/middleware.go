package httpapi

import (
	"strings"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/server/auth"
	"github.com/gofiber/fiber/v2"
)

const userIDKey = "userID"

// authenticate resolves the bearer token, if any, to a user id stored in
// locals. Requests without an Authorization header pass through anonymous.
func (s *Server) authenticate(c *fiber.Ctx) error {
	header := c.Get(common.AuthorizationHeaderName)
	if header == "" {
		return c.Next()
	}

	token, ok := strings.CutPrefix(header, common.BearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return common.ErrInvalidToken
	}

	userID, err := s.deps.Verifier.Verify(strings.TrimSpace(token))
	if err != nil {
		return err
	}

	revoked, err := s.deps.Revocations.IsRevoked(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if revoked {
		return common.ErrTokenRevoked
	}

	c.Locals(userIDKey, userID)
	return c.Next()
}

// viewer returns the authenticated user id or "" for anonymous callers.
func viewer(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

func (s *Server) requireOwner(c *fiber.Ctx) error {
	if err := auth.Authorize(viewer(c), c.Params("userId")); err != nil {
		return err
	}
	return c.Next()
}
