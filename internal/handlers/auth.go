package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/services"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"required"`
	UserName string `json:"userName"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	Location string `json:"location"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type forgotPasswordRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type resetPasswordRequest struct {
	Phone    string `json:"phone" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func Signup(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/signup"
		defer handlePanic(c, route)

		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		user, err := auth.Signup(c.Request.Context(), services.SignupInput{
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
			UserName: req.UserName,
			Phone:    req.Phone,
			Gender:   req.Gender,
			Location: req.Location,
		})
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "user registered", "user": user})
	}
}

func Login(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		session, err := auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func Refresh(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/refresh"
		defer handlePanic(c, route)

		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		session, err := auth.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func Logout(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/logout"
		defer handlePanic(c, route)

		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
			respondError(c, route, err)
			return
		}
		log.Println("[AUTH] [INFO] refresh token revoked")
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func ForgotPassword(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/forgot-password"
		defer handlePanic(c, route)

		var req forgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		delivery, err := auth.ForgotPassword(c.Request.Context(), req.Phone)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "reset token sent", "result": delivery})
	}
}

func EnterNewPassword(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/enter-new-password"
		defer handlePanic(c, route)

		var req resetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := auth.ResetPassword(c.Request.Context(), req.Phone, req.OTP, req.Password); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password reset successfully"})
	}
}

func UpdatePassword(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /auth/updatePassword"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		var req updatePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := auth.UpdatePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}

func ViewProfile(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/viewProfile"
		defer handlePanic(c, route)

		userID, ok := currentUser(c, route)
		if !ok {
			return
		}
		user, err := auth.Profile(c.Request.Context(), userID)
		if err != nil {
			respondError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}
