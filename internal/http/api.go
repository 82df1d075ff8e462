package http

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"treasure-hunt/internal/domain"
	"treasure-hunt/internal/repository"
	"treasure-hunt/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

var offeredFormats = []string{binding.MIMEHTML, binding.MIMEJSON}

const sessionKey = "session"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	sessions service.SessionService
	hunt     service.HuntService
	health   repository.Pinger
	cookie   CookieConfig
	log      logrus.FieldLogger
}

func NewHandler(sessions service.SessionService, hunt service.HuntService, health repository.Pinger, cookie CookieConfig, log logrus.FieldLogger) *Handler {
	return &Handler{
		sessions: sessions,
		hunt:     hunt,
		health:   health,
		cookie:   cookie,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(pageTemplates)

	router.GET("/", h.home)
	router.GET("/login", h.loginForm)
	router.POST("/login", h.login)
	router.GET("/round", h.requireSession, h.currentRound)
	router.POST("/submit-answer", h.requireSession, h.submitAnswer)

	api := router.Group("/api")
	{
		api.GET("/health", h.healthCheck)
		api.GET("/progress", h.requireSession, h.progress)
	}
}

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type answerRequest struct {
	Answer string `form:"answer" json:"answer" binding:"required"`
}

type LoginResponse struct {
	Username     string `json:"username"`
	Path         string `json:"path"`
	CurrentRound int    `json:"current_round"`
	Token        string `json:"token"`
	ExpiresAt    string `json:"expires_at"`
}

type RoundResponse struct {
	Username  string `json:"username"`
	Path      string `json:"path"`
	Round     int    `json:"round"`
	Question  string `json:"question,omitempty"`
	Venue     string `json:"venue,omitempty"`
	Completed bool   `json:"completed"`
}

type AnswerResponse struct {
	Username     string `json:"username"`
	Answer       string `json:"answer"`
	Correct      bool   `json:"correct"`
	Completed    bool   `json:"completed"`
	CurrentRound int    `json:"current_round"`
	NextRound    *int   `json:"next_round,omitempty"`
}

type ProgressResponse struct {
	Username     string `json:"username"`
	Path         string `json:"path"`
	CurrentRound int    `json:"current_round"`
	TotalRounds  int    `json:"total_rounds"`
	Solved       int    `json:"solved"`
	Completed    bool   `json:"completed"`
}

func (h *Handler) home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.tmpl", nil)
}

func (h *Handler) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.tmpl", nil)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, http.StatusBadRequest, errors.New("username and password are required"))
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, res.Token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)

	if c.NegotiateFormat(offeredFormats...) == binding.MIMEJSON {
		c.JSON(http.StatusOK, LoginResponse{
			Username:     res.User.Username,
			Path:         res.User.Path,
			CurrentRound: res.User.CurrentRound,
			Token:        res.Token,
			ExpiresAt:    res.Session.ExpiresAt.UTC().Format(time.RFC3339),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/round")
}

func (h *Handler) currentRound(c *gin.Context) {
	view, err := h.hunt.CurrentRound(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}

	resp := RoundResponse{
		Username:  view.User.Username,
		Path:      view.User.Path,
		Round:     view.User.CurrentRound,
		Completed: view.Completed,
	}
	if view.Round != nil {
		resp.Question = view.Round.Question
		resp.Venue = view.Round.Venue
	}
	h.respond(c, http.StatusOK, "round.tmpl", resp)
}

func (h *Handler) submitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBind(&req); err != nil {
		h.fail(c, http.StatusBadRequest, errors.New("answer is required"))
		return
	}

	res, err := h.hunt.SubmitAnswer(c.Request.Context(), sessionFrom(c), req.Answer)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}

	resp := AnswerResponse{
		Username:     res.User.Username,
		Answer:       req.Answer,
		Correct:      res.Correct,
		Completed:    res.Completed,
		CurrentRound: res.User.CurrentRound,
	}
	if res.Next != nil {
		next := res.Next.Number
		resp.NextRound = &next
	}
	h.respond(c, http.StatusOK, "answer.tmpl", resp)
}

func (h *Handler) progress(c *gin.Context) {
	view, err := h.hunt.Progress(c.Request.Context(), sessionFrom(c))
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, ProgressResponse{
		Username:     view.User.Username,
		Path:         view.User.Path,
		CurrentRound: view.User.CurrentRound,
		TotalRounds:  view.TotalRounds,
		Solved:       view.Solved,
		Completed:    view.Completed,
	})
}

func (h *Handler) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.health.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("store ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": "ok"})
}

// requireSession resolves the session cookie (or bearer token) and stores it on the context.
func (h *Handler) requireSession(c *gin.Context) {
	session, err := h.sessions.Resolve(tokenFrom(c, h.cookie.Name))
	if err != nil {
		h.fail(c, http.StatusForbidden, service.ErrNotLoggedIn)
		c.Abort()
		return
	}
	c.Set(sessionKey, session)
	c.Next()
}

func tokenFrom(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

func sessionFrom(c *gin.Context) domain.Session {
	if v, ok := c.Get(sessionKey); ok {
		if session, ok := v.(domain.Session); ok {
			return session
		}
	}
	return domain.Session{}
}

func (h *Handler) respond(c *gin.Context, status int, page string, data any) {
	c.Negotiate(status, gin.Negotiate{
		Offered:  offeredFormats,
		HTMLName: page,
		HTMLData: data,
		JSONData: data,
	})
}

// fail writes an error page or JSON body. Server errors are logged and replaced by a generic message.
func (h *Handler) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.Negotiate(status, gin.Negotiate{
		Offered:  offeredFormats,
		HTMLName: "error.tmpl",
		HTMLData: gin.H{"Status": status, "Message": msg},
		JSONData: gin.H{"error": msg},
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotLoggedIn):
		return http.StatusForbidden
	case errors.Is(err, service.ErrRoundNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrProgressConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
