package server

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lumen-notes/lumen/backend/internal/collab"
	"go.uber.org/zap"
)

// HookSecretHeader authenticates the external session server on every hook
// call; end-user credentials ride in the auth hook body instead.
const HookSecretHeader = "X-Lumen-Hook-Secret"

var (
	errMissingBridge     = errors.New("persistence bridge dependency required")
	errMissingGate       = errors.New("access gate dependency required")
	errMissingHookSecret = errors.New("hook shared secret required")
)

// Dependencies wires the hook surface to the collaboration core.
type Dependencies struct {
	Bridge           *collab.Bridge
	Gate             *collab.Gate
	HookSharedSecret string
	Logger           *zap.Logger
}

// NewHTTPHandler exposes the three collaboration hooks to the external
// session server: authorize a session, load a document snapshot, save a
// document snapshot. Load and save never surface an error to the caller —
// failures degrade to an absent snapshot and a no-op respectively, so one
// note's persistence fault cannot fail the session server's event loop.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Bridge == nil {
		return nil, errMissingBridge
	}
	if deps.Gate == nil {
		return nil, errMissingGate
	}
	if strings.TrimSpace(deps.HookSharedSecret) == "" {
		return nil, errMissingHookSecret
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", HookSecretHeader},
		MaxAge:       12 * time.Hour,
	}))

	handler := &hookHandler{
		bridge:     deps.Bridge,
		gate:       deps.Gate,
		hookSecret: []byte(deps.HookSharedSecret),
		logger:     logger,
	}

	hooks := router.Group("/hooks")
	hooks.Use(handler.authenticateSessionServer)
	hooks.POST("/auth", handler.handleAuth)
	hooks.POST("/load", handler.handleLoad)
	hooks.POST("/save", handler.handleSave)

	return router, nil
}

type hookHandler struct {
	bridge     *collab.Bridge
	gate       *collab.Gate
	hookSecret []byte
	logger     *zap.Logger
}

func (h *hookHandler) authenticateSessionServer(c *gin.Context) {
	presented := []byte(c.GetHeader(HookSecretHeader))
	if subtle.ConstantTimeCompare(presented, h.hookSecret) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

type authRequestPayload struct {
	Token      string `json:"token"`
	DocumentID string `json:"document_id"`
}

type authResponsePayload struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
	ReadOnly    bool   `json:"read_only"`
}

func (h *hookHandler) handleAuth(c *gin.Context) {
	var request authRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	documentID, err := collab.NewDocumentID(request.DocumentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	session, err := h.gate.Authorize(c.Request.Context(), request.Token, documentID)
	if err != nil {
		// Every denial cause collapses to one opaque outcome.
		c.JSON(http.StatusForbidden, gin.H{"error": "access_denied"})
		return
	}

	c.JSON(http.StatusOK, authResponsePayload{
		UserID:      session.UserID,
		DisplayName: session.DisplayName,
		Color:       session.Color,
		ReadOnly:    session.ReadOnly,
	})
}

type loadRequestPayload struct {
	DocumentID string `json:"document_id"`
}

type loadResponsePayload struct {
	Snapshot *string `json:"snapshot"`
}

func (h *hookHandler) handleLoad(c *gin.Context) {
	var request loadRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	documentID, err := collab.NewDocumentID(request.DocumentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	snapshot, err := h.bridge.Load(c.Request.Context(), documentID)
	if err != nil {
		// Absorbed: the session server starts an empty untracked document.
		h.logger.Warn("load hook degraded to empty document",
			zap.String("document_id", documentID.String()),
			zap.Error(err))
		c.JSON(http.StatusOK, loadResponsePayload{Snapshot: nil})
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusOK, loadResponsePayload{Snapshot: nil})
		return
	}

	encoded := base64.StdEncoding.EncodeToString(snapshot)
	c.JSON(http.StatusOK, loadResponsePayload{Snapshot: &encoded})
}

type saveRequestPayload struct {
	DocumentID string `json:"document_id"`
	Snapshot   string `json:"snapshot"`
}

func (h *hookHandler) handleSave(c *gin.Context) {
	var request saveRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	documentID, err := collab.NewDocumentID(request.DocumentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	snapshot, err := base64.StdEncoding.DecodeString(request.Snapshot)
	if err != nil || len(snapshot) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.bridge.Save(c.Request.Context(), documentID, snapshot); err != nil {
		// Snapshot durability failed; already logged with document id and
		// phase inside the bridge. The hook contract stays non-throwing.
		h.logger.Warn("save hook absorbed failure",
			zap.String("document_id", documentID.String()),
			zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}
