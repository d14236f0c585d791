package controller

import (
	"github.com/gofiber/fiber/v2"

	authDto "marathon_backend/internals/features/users/auth/dto"
	"marathon_backend/internals/features/users/auth/service"
	helper "marathon_backend/internals/helpers"
)

type AuthController struct {
	Svc *service.AuthService
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{Svc: svc}
}

// POST /api/auth/send-otp
func (ac *AuthController) SendOTP(c *fiber.Ctx) error {
	var req authDto.SendOTPRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := ac.Svc.SendOTP(c.UserContext(), req.MobileNumber); err != nil {
		return err
	}
	return helper.JsonOK(c, "OTP sent", fiber.Map{"mobileNumber": req.MobileNumber})
}

// POST /api/auth/verify-otp
func (ac *AuthController) VerifyOTP(c *fiber.Ctx) error {
	var req authDto.VerifyOTPRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := ac.Svc.VerifyOTP(c.UserContext(), req.MobileNumber, req.OTP)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "login successful", res)
}

// POST /api/auth/admin/login
func (ac *AuthController) AdminLogin(c *fiber.Ctx) error {
	var req authDto.AdminLoginRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	token, err := ac.Svc.AdminLogin(c.UserContext(), req.MobileNumber, req.Password)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "login successful", fiber.Map{"token": token, "role": helper.RoleAdmin})
}

// GET /api/auth/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := helper.GetUserID(c)
	if err != nil {
		return err
	}
	u, err := ac.Svc.Me(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", u)
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if err := ac.Svc.Logout(c.UserContext(), helper.GetRawAccessToken(c)); err != nil {
		return err
	}
	return helper.JsonOK(c, "logged out", nil)
}
