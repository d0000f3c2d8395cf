package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/auth"
	"github.com/geocoder89/authbase/internal/domain/user"
	"github.com/geocoder89/authbase/internal/http/middlewares"
	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/geocoder89/authbase/internal/observability"
	"github.com/gin-gonic/gin"
)

// bcrypt at cost 12 plus one store round trip fits comfortably
const authTimeout = 5 * time.Second

type Authenticator interface {
	Register(ctx context.Context, in auth.RegisterInput) (user.AuthResponse, error)
	Login(ctx context.Context, in auth.LoginInput) (user.AuthResponse, error)
	GetCurrentUser(ctx context.Context, userID string) (user.PublicUser, error)
}

type AuthHandler struct {
	svc  Authenticator
	prom *observability.Prom
}

func NewAuthHandler(svc Authenticator, prom *observability.Prom) *AuthHandler {
	RegisterValidators()

	return &AuthHandler{svc: svc, prom: prom}
}

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,auth_email"`
	Password string  `json:"password" binding:"required,strong_password"`
	Name     *string `json:"name" binding:"omitempty,person_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,auth_email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		h.observe("register", ctx)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), authTimeout)
	defer cancel()

	resp, err := h.svc.Register(cctx, auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})

	if err != nil {
		respond.Fail(ctx, err)
		h.observeErr("register", err)
		return
	}

	respond.JSON(ctx, http.StatusCreated, "User registered successfully", resp)
	h.observe("register", ctx)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		h.observe("login", ctx)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), authTimeout)
	defer cancel()

	resp, err := h.svc.Login(cctx, auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})

	if err != nil {
		respond.Fail(ctx, err)
		h.observeErr("login", err)
		return
	}

	respond.JSON(ctx, http.StatusOK, "Login successful", resp)
	h.observe("login", ctx)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		respond.Fail(ctx, apperr.Unauthorized("Access token required", apperr.CodeAuthenticationFailed))
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), authTimeout)
	defer cancel()

	me, err := h.svc.GetCurrentUser(cctx, userID)
	if err != nil {
		respond.Fail(ctx, err)
		return
	}

	respond.JSON(ctx, http.StatusOK, "User data retrieved successfully", gin.H{"user": me})
}

// observe records the outcome of a handler that already wrote its response or
// attached a bind error.
func (h *AuthHandler) observe(op string, ctx *gin.Context) {
	if h.prom == nil {
		return
	}

	if len(ctx.Errors) > 0 {
		h.observeErr(op, ctx.Errors.Last().Err)
		return
	}

	h.prom.ObserveAuth(op, ctx.Writer.Status())
}

func (h *AuthHandler) observeErr(op string, err error) {
	if h.prom == nil {
		return
	}

	h.prom.ObserveAuth(op, apperr.From(err).Status)
}
