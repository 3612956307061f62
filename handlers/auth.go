package handlers

import (
	"errors"
	"net/http"

	"eduscan-api/middleware"
	"eduscan-api/models"
	"eduscan-api/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users       *services.UserService
	authService *services.AuthService
}

func NewAuthHandler(users *services.UserService, authService *services.AuthService) *AuthHandler {
	return &AuthHandler{users: users, authService: authService}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
	UserType string `json:"user_type" binding:"omitempty,oneof=teacher parent"`
	FullName string `json:"full_name"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		UserType: req.UserType,
		FullName: req.FullName,
		Email:    req.Email,
	})
	switch {
	case errors.Is(err, services.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "username already registered"})
		return
	case errors.Is(err, services.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.authService.IssueToken(user)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	sess := middleware.GetSession(c)
	sess.UserID = user.ID
	sess.Username = user.Username
	sess.Role = user.UserType

	c.JSON(status, AuthResponse{Token: token, User: user.Public()})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.GetSession(c)
	sess.UserID = 0
	sess.Username = ""
	sess.Role = ""
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
