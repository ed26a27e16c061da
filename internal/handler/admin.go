package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tayoga/internal/auth"
	"tayoga/internal/schedule"
)

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}
	sess, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !sess.IsAdmin() {
		_ = h.sessions.SignOut(c.Request.Context(), sess.ID)
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}
	token, err := h.tokens.Issue(sess)
	if err != nil {
		_ = h.sessions.SignOut(c.Request.Context(), sess.ID)
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": sess.ExpiresAt.Unix(),
		"user":       sess.User,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	sess, _ := auth.SessionFrom(c)
	if err := h.sessions.SignOut(c.Request.Context(), sess.ID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session ended"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	sess, _ := auth.SessionFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"session":       sess,
		"authenticated": sess.Authenticated(),
		"is_admin":      sess.IsAdmin(),
	})
}

func (h *Handler) AdminListClasses(c *gin.Context) {
	classes, err := h.schedule.Classes(c.Request.Context(), true)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (h *Handler) CreateClass(c *gin.Context) {
	var in schedule.RecurringClass
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.schedule.CreateClass(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateClass(c *gin.Context) {
	var in schedule.RecurringClass
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.ID = c.Param("id")
	updated, err := h.schedule.UpdateClass(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeactivateClass hides the class; bookings that reference it are kept.
func (h *Handler) DeactivateClass(c *gin.Context) {
	if err := h.schedule.DeactivateClass(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.List(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
