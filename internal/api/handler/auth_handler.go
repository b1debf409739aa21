package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
	"github.com/Mahmoud3mmar/brewly/internal/core/ports"
)

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup registers a new account and sends an email verification OTP.
//
// @Summary      User registration (sends OTP to email for verification)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Registration details"
// @Success      201   {object}  envelope{data=authResponse}
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Signup(c.Request().Context(), ports.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, authResponse{
		User:    toUserProfile(res.User),
		Token:   res.Token,
		Message: res.Message,
	})
}

// Login authenticates a verified user and returns a bearer token.
//
// @Summary      User login (requires verified email)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  envelope{data=authResponse}
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, authResponse{User: toUserProfile(res.User), Token: res.Token})
}

// VerifyEmail confirms the caller's email address with an OTP.
//
// @Summary      Verify email with OTP code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      otpVerifyRequest  true  "OTP code"
// @Success      200   {object}  envelope{data=messageResponse}
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context, user *domain.User) error {
	var req otpVerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.authService.VerifyEmail(c.Request().Context(), user.ID, req.OTP)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, messageResponse{Message: msg})
}

// ResendVerificationOTP sends a fresh verification OTP to the caller.
//
// @Summary      Resend verification OTP
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  envelope{data=messageResponse}
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /auth/resend-verification-otp [post]
func (h *AuthHandler) ResendVerificationOTP(c echo.Context, user *domain.User) error {
	msg, err := h.authService.ResendVerificationOTP(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, messageResponse{Message: msg})
}

// RequestPasswordReset emails a password reset OTP. The response does not
// reveal whether the account exists.
//
// @Summary      Request password reset (sends OTP via email)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      passwordResetRequest  true  "Account email"
// @Success      200   {object}  envelope{data=messageResponse}
// @Failure      400   {object}  map[string]any
// @Router       /auth/password/reset [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, messageResponse{Message: msg})
}

// ConfirmPasswordReset sets a new password using a reset OTP.
//
// @Summary      Confirm password reset with OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      passwordResetConfirmRequest  true  "Reset confirmation"
// @Success      200   {object}  envelope{data=messageResponse}
// @Failure      400   {object}  map[string]any
// @Router       /auth/password/reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req passwordResetConfirmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.authService.ConfirmPasswordReset(c.Request().Context(), req.Email, req.OTP, req.NewPassword)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, messageResponse{Message: msg})
}

// Profile returns the caller's profile.
//
// @Summary      Get user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  envelope{data=userProfile}
// @Failure      401   {object}  map[string]any
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context, user *domain.User) error {
	profile, err := h.authService.GetProfile(c.Request().Context(), user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Recast(err, domain.KindUnauthorized, "user not found")
		}
		return err
	}
	return respond(c, http.StatusOK, toUserProfile(profile))
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
