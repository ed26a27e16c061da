package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tayoga/internal/auth"
	"tayoga/internal/booking"
	"tayoga/internal/schedule"
	"tayoga/internal/seo"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Deps are the services the HTTP layer sits on.
type Deps struct {
	Schedule *schedule.Service
	Bookings *booking.Service
	Sessions *auth.Sessions
	Tokens   *auth.TokenService
	SEO      *seo.Injector
	Page     []byte
	WebDir   string
	Checks   map[string]HealthCheck
	Log      logrus.FieldLogger
}

// Handler serves the public site API, the admin API and the pages.
type Handler struct {
	schedule *schedule.Service
	bookings *booking.Service
	sessions *auth.Sessions
	tokens   *auth.TokenService
	seo      *seo.Injector
	page     []byte
	webDir   string
	checks   map[string]HealthCheck
	log      logrus.FieldLogger
}

func New(d Deps) *Handler {
	return &Handler{
		schedule: d.Schedule,
		bookings: d.Bookings,
		sessions: d.Sessions,
		tokens:   d.Tokens,
		seo:      d.SEO,
		page:     d.Page,
		webDir:   d.WebDir,
		checks:   d.Checks,
		log:      d.Log,
	}
}

// Routes mounts every endpoint on r. limit guards the public write endpoints and login.
func (h *Handler) Routes(r *gin.Engine, limit gin.HandlerFunc) {
	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")
	v1.GET("/schedule", h.OpeningHours)
	v1.GET("/classes", h.ListClasses)
	v1.POST("/bookings", limit, h.CreateBooking)
	v1.GET("/seo", h.SEOMetadata)
	v1.POST("/admin/login", limit, h.Login)

	admin := v1.Group("/admin", auth.AdminAuth(h.tokens, h.sessions))
	admin.POST("/logout", h.Logout)
	admin.GET("/me", h.Me)
	admin.GET("/classes", h.AdminListClasses)
	admin.POST("/classes", h.CreateClass)
	admin.PUT("/classes/:id", h.UpdateClass)
	admin.DELETE("/classes/:id", h.DeactivateClass)
	admin.GET("/bookings", h.ListBookings)

	if h.webDir != "" {
		r.Static("/assets", h.webDir+"/assets")
	}
	r.NoRoute(h.Page)
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		ok := check(ctx)
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

type dayResponse struct {
	schedule.DaySchedule
	Hours string `json:"hours"`
}

// OpeningHours returns Monday..Friday with slots and the display string per day.
func (h *Handler) OpeningHours(c *gin.Context) {
	days, err := h.schedule.OpeningHours(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]dayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, dayResponse{DaySchedule: d, Hours: d.Hours()})
	}
	c.JSON(http.StatusOK, gin.H{"days": out})
}

func (h *Handler) ListClasses(c *gin.Context) {
	classes, err := h.schedule.Classes(c.Request.Context(), false)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req booking.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}
	b, err := h.bookings.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) SEOMetadata(c *gin.Context) {
	path := c.DefaultQuery("path", "/")
	c.JSON(http.StatusOK, h.seo.Metadata(path))
}

// Page renders the site shell with the head synced for the requested path.
func (h *Handler) Page(c *gin.Context) {
	path := c.Request.URL.Path
	if c.Request.Method != http.MethodGet || strings.HasPrefix(path, "/v1/") || len(h.page) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var buf bytes.Buffer
	if err := h.seo.Render(&buf, h.page, path); err != nil {
		h.log.WithError(err).WithField("path", path).Error("page render failed")
		c.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// fail maps domain errors to HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, schedule.ErrDataUnavailable):
		status, msg = http.StatusServiceUnavailable, "schedule temporarily unavailable"
	case errors.Is(err, schedule.ErrInvalidClass), errors.Is(err, booking.ErrInvalidBooking):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, schedule.ErrClassNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, booking.ErrClassUnavailable),
		errors.Is(err, booking.ErrDateMismatch),
		errors.Is(err, booking.ErrPastDate):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, booking.ErrClassFull):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	}
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}
