package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hirelink/internal/models"
	"github.com/yoockh/hirelink/internal/services"
)

type AuthHandler struct {
	svc services.AccountService
}

func NewAuthHandler(svc services.AccountService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Company  string `json:"company"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody("AuthHandler.Register", err))
		return
	}

	acc, token, err := h.svc.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Company:  req.Company,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, AuthResponse{Token: token, Account: acc})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody("AuthHandler.Login", err))
		return
	}

	acc, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuthResponse{Token: token, Account: acc})
}
