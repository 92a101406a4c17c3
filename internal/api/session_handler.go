package api

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"billdue-backend-go/internal/models"
	"billdue-backend-go/internal/session"
)

// SessionHandler turns authenticated HTTP requests into session events
// for the sync coordinator. The OAuth flow itself happens on the
// client; this handler only verifies the resulting Firebase ID token.
type SessionHandler struct {
	authClient *auth.Client
	provider   *session.Provider
	logger     *zap.Logger
}

// NewSessionHandler creates a new SessionHandler. authClient is nil
// when cloud sync is not configured; sign-in then returns 503.
func NewSessionHandler(authClient *auth.Client, provider *session.Provider, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{authClient: authClient, provider: provider, logger: logger}
}

// SignIn handles POST /session/signin.
func (h *SessionHandler) SignIn(c *gin.Context) {
	if h.authClient == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Cloud sync is not configured on this server"})
		return
	}

	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	token, err := h.authClient.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		h.logger.Warn("Sign-in token verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
		return
	}

	if !h.provider.Publish(session.Event{Kind: session.EventSignedIn, UserID: token.UID}) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Session transition could not be queued"})
		return
	}
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "Sign-in accepted", Data: gin.H{"userId": token.UID}})
}

// Me handles GET /session/me. It runs behind the auth middleware, which
// has already verified the token and stored the claims in the context.
func (h *SessionHandler) Me(c *gin.Context) {
	resp := gin.H{"userId": c.GetString("userID")}
	if email := c.GetString("userEmail"); email != "" {
		resp["email"] = email
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Authenticated", Data: resp})
}

// Refresh handles POST /session/refresh. A refreshed token does not
// change the active backing store; the event exists so the coordinator
// can log continuity of the session.
func (h *SessionHandler) Refresh(c *gin.Context) {
	if !h.provider.Publish(session.Event{Kind: session.EventTokenRefreshed}) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Session transition could not be queued"})
		return
	}
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "Refresh accepted"})
}

// SignOut handles POST /session/signout.
func (h *SessionHandler) SignOut(c *gin.Context) {
	if !h.provider.Publish(session.Event{Kind: session.EventSignedOut}) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Session transition could not be queued"})
		return
	}
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "Sign-out accepted"})
}
