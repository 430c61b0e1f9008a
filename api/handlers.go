package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/authgate/config"
	"github.com/skillsenselab/authgate/cookie"
	apperrors "github.com/skillsenselab/authgate/errors"
	"github.com/skillsenselab/authgate/flow"
	"github.com/skillsenselab/authgate/logger"
	"github.com/skillsenselab/authgate/observability"
	"github.com/skillsenselab/authgate/server"
	"github.com/skillsenselab/authgate/session"
)

// Handlers holds the auth endpoint handlers and their dependencies.
type Handlers struct {
	flow     *flow.Coordinator
	sessions *session.Reader
	cookies  config.CookieConfig
	metrics  *observability.AuthMetrics
	log      *logger.Logger
}

// NewHandlers creates the auth endpoint handlers. metrics may be nil, in
// which case recording is skipped.
func NewHandlers(fc *flow.Coordinator, sessions *session.Reader, cookies config.CookieConfig, metrics *observability.AuthMetrics, log *logger.Logger) *Handlers {
	return &Handlers{
		flow:     fc,
		sessions: sessions,
		cookies:  cookies,
		metrics:  metrics,
		log:      log.WithComponent("api"),
	}
}

// Register mounts the auth routes on the engine.
func (h *Handlers) Register(engine *gin.Engine) {
	auth := engine.Group("/auth")

	auth.GET("/login", h.Login)
	auth.GET("/callback", h.Callback)
	auth.POST("/refresh", h.Refresh)
	auth.GET("/logout", h.Logout)
	auth.GET("/signout", h.Logout)
	auth.GET("/me", h.Me)
}

// Login starts the authorization-code flow: parks PKCE state in the flow
// cookie and redirects to the provider's hosted login page.
func (h *Handlers) Login(c *gin.Context) {
	start := time.Now()
	redirect, err := h.flow.BeginLogin(c.Request.Context())
	if err != nil {
		h.record(c, "login", "error", start, err)
		server.RespondWithError(c, err)
		return
	}

	setCookies(c, redirect.Cookies)
	h.record(c, "login", "success", start, nil)
	c.Redirect(http.StatusFound, redirect.URL)
}

// Callback completes the flow: validates state, exchanges the code, sets
// session cookies, and redirects to the frontend.
func (h *Handlers) Callback(c *gin.Context) {
	start := time.Now()
	cookies := requestCookies(c)

	redirect, err := h.flow.CompleteCallback(
		c.Request.Context(),
		c.Query("code"),
		c.Query("state"),
		cookies[h.cookies.FlowName()],
	)
	if err != nil {
		h.record(c, "callback", "error", start, err)
		server.RespondWithError(c, err)
		return
	}

	setCookies(c, redirect.Cookies)
	h.record(c, "callback", "success", start, nil)
	c.Redirect(http.StatusFound, redirect.URL)
}

// Refresh exchanges the refresh cookie for a fresh access token. The
// browser calls this from JavaScript, so the response is JSON rather than
// a redirect.
func (h *Handlers) Refresh(c *gin.Context) {
	start := time.Now()
	cookies := requestCookies(c)

	result, err := h.flow.Refresh(c.Request.Context(), cookies[h.cookies.RefreshName()])
	if err != nil {
		h.record(c, "refresh", "error", start, err)
		server.RespondWithError(c, err)
		return
	}

	setCookies(c, result.Cookies)
	h.record(c, "refresh", "success", start, nil)
	server.RespondOK(c, gin.H{"ok": true})
}

// Logout clears every session cookie and redirects to the provider's
// logout endpoint, which in turn redirects back to the frontend.
func (h *Handlers) Logout(c *gin.Context) {
	start := time.Now()
	redirect := h.flow.BuildLogout()

	setCookies(c, redirect.Cookies)
	h.record(c, "logout", "success", start, nil)
	c.Redirect(http.StatusFound, redirect.URL)
}

// Me reports whether the request carries a verified session and, when it
// does, the user's profile.
func (h *Handlers) Me(c *gin.Context) {
	profile := h.sessions.ReadProfile(c.Request.Context(), requestCookies(c))
	if profile == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"authenticated": false,
			"error":         "Not authenticated",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"profile":       profile,
	})
}

// requestCookies parses the request's Cookie header.
func requestCookies(c *gin.Context) map[string]string {
	return cookie.Decode(c.GetHeader("Cookie"))
}

// setCookies adds Set-Cookie headers without Gin reformatting them.
func setCookies(c *gin.Context, headers []string) {
	for _, h := range headers {
		c.Writer.Header().Add("Set-Cookie", h)
	}
}

func (h *Handlers) record(c *gin.Context, operation, outcome string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	ctx := c.Request.Context()
	h.metrics.RecordFlow(ctx, operation, outcome, time.Since(start))
	if err != nil {
		if appErr, ok := apperrCode(err); ok {
			h.metrics.RecordError(ctx, appErr)
		}
	}
}

func apperrCode(err error) (string, bool) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return "", false
	}
	return string(appErr.Code), true
}
