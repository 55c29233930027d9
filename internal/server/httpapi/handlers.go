package httpapi

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

const avatarField = "avatar"

func (s *Server) getProfile(c *fiber.Ctx) error {
	p, err := s.deps.Profiles.GetProfile(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) getPublicProfile(c *fiber.Ctx) error {
	userID := c.Params("userId")

	// Owners asking for their own public page get the full view.
	if viewer(c) == userID {
		return s.getProfile(c)
	}

	p, err := s.deps.Profiles.GetPublicProfile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var patch models.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	p, err := s.deps.Profiles.UpdateProfile(c.UserContext(), c.Params("userId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) getSettings(c *fiber.Ctx) error {
	st, err := s.deps.Settings.GetSettings(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) updateSettings(c *fiber.Ctx) error {
	var in models.UserSettings
	if err := c.BodyParser(&in); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	st, err := s.deps.Settings.UpdateSettings(c.UserContext(), c.Params("userId"), in)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) getUserAvatar(c *fiber.Ctx) error {
	a, err := s.deps.Avatars.GetForUser(c.UserContext(), viewer(c), c.Params("userId"))
	if err != nil {
		return err
	}
	return stream(c, a)
}

func (s *Server) getAvatar(c *fiber.Ctx) error {
	a, err := s.deps.Avatars.Get(c.UserContext(), c.Params("avatarId"))
	if err != nil {
		return err
	}
	return stream(c, a)
}

func (s *Server) uploadAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile(avatarField)
	if err != nil {
		return common.NewValidationError(avatarField, "multipart field is missing")
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	id, err := s.deps.Avatars.Replace(c.UserContext(), c.Params("userId"), data, fh.Filename)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"avatarImageId": id})
}

func (s *Server) deleteAvatar(c *fiber.Ctx) error {
	if err := s.deps.Avatars.DeleteForUser(c.UserContext(), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
