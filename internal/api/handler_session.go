package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"arcade-inventory-backend/internal/auth"
	"arcade-inventory-backend/internal/logger"
)

// Login handles POST /admin/login with a form or JSON body carrying
// identifier (or username) and password.
func (h *Handler) Login(c *gin.Context) {
	values, err := formValues(c.Request)
	if err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	identifier := formString(values, "identifier")
	if identifier == "" {
		identifier = formString(values, "username")
	}
	password := values.Get("password")
	if identifier == "" || password == "" {
		badRequest(c, "Username and password are required")
		return
	}

	log := logger.FromContext(c.Request.Context())
	user := h.auth.Authenticate(c.Request.Context(), identifier, password)
	if user == nil {
		log.Info("login failed", zap.String("identifier", identifier))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		h.serverError(c, "An error occurred during login", err)
		return
	}
	h.auth.SetCookie(c, token)
	log.Info("login succeeded", zap.Uint("user_id", user.ID))

	if !isJSON(c.Request) {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout handles POST /admin/logout.
func (h *Handler) Logout(c *gin.Context) {
	h.auth.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /admin/me.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, auth.CurrentUser(c))
}
