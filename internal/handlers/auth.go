package handlers

import (
	"strings"

	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/Kawdoor/aizer/internal/middleware"
	"github.com/Kawdoor/aizer/internal/services"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Identity identity.Provider
	Audit    *services.AuditService
}

func NewAuthHandler(provider identity.Provider, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{Identity: provider, Audit: audit}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.Identity.SignUp(c.UserContext(), identity.Registration{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return utils.Fail(c, err)
	}

	logger.Info("user_registered", map[string]interface{}{
		"user_id": session.User.ID.String(),
		"email":   session.User.Email,
	})

	record(c, h.Audit, services.AuditEntry{
		UserID:       &session.User.ID,
		Action:       "user.register",
		ResourceType: "user",
		ResourceID:   &session.User.ID,
		Details: map[string]interface{}{
			"email": session.User.Email,
		},
	})

	return utils.Success(c, fiber.StatusCreated, session)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	session, err := h.Identity.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		logger.Warn("login_failed", map[string]interface{}{
			"email": strings.ToLower(strings.TrimSpace(req.Email)),
			"ip":    c.IP(),
			"error": err.Error(),
		})
		return utils.Fail(c, err)
	}

	logger.Info("user_login", map[string]interface{}{
		"user_id": session.User.ID.String(),
		"email":   session.User.Email,
		"ip":      c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, session)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return utils.Error(c, fiber.StatusBadRequest, "refreshToken is required")
	}

	session, err := h.Identity.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, session)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.Identity.SignOut(c.UserContext(), req.RefreshToken); err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"signedOut": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, currentUser)
}

type updateMeRequest struct {
	DisplayName *string `json:"displayName"`
	AccentColor *string `json:"accentColor"`
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Identity.UpdateProfile(c.UserContext(), currentUser.ID, identity.ProfileEdit{
		DisplayName: req.DisplayName,
		AccentColor: req.AccentColor,
	})
	if err != nil {
		return utils.Fail(c, err)
	}

	record(c, h.Audit, services.AuditEntry{
		Action:       "user.update_profile",
		ResourceType: "user",
		ResourceID:   &user.ID,
	})

	return utils.Success(c, fiber.StatusOK, user)
}
