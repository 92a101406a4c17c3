package api

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"billdue-backend-go/internal/core"
	"billdue-backend-go/internal/gateway"
	"billdue-backend-go/internal/metrics"
	"billdue-backend-go/internal/middleware"
	"billdue-backend-go/internal/session"
)

// SetupRoutes configures all the application routes with their handlers.
// Global middleware (Logging, Recovery, CORS) is applied to the router
// before this function is called, in main. authClient is nil when the
// server runs without cloud sync.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	store *core.BillStore,
	gw gateway.Gateway,
	provider *session.Provider,
	authClient *auth.Client,
	m *metrics.Metrics,
) {
	billHandler := NewBillHandler(store, logger)
	settingsHandler := NewSettingsHandler(store, logger)
	sessionHandler := NewSessionHandler(authClient, provider, logger)
	notificationHandler := NewNotificationHandler(gw, logger)

	apiV1 := router.Group("/api/v1")
	{
		billsGroup := apiV1.Group("/bills")
		{
			billsGroup.GET("", billHandler.ListBills)
			billsGroup.POST("", billHandler.CreateBill)
			billsGroup.GET("/:billId", billHandler.GetBill)
			billsGroup.PUT("/:billId", billHandler.UpdateBill)
			billsGroup.DELETE("/:billId", billHandler.DeleteBill)

			// POST /api/v1/bills/{billId}/pay
			billsGroup.POST("/:billId/pay", billHandler.MarkBillPaid)
		}

		settingsGroup := apiV1.Group("/settings")
		{
			settingsGroup.GET("", settingsHandler.GetSettings)
			settingsGroup.PUT("", settingsHandler.UpdateSettings)
		}

		sessionGroup := apiV1.Group("/session")
		{
			sessionGroup.POST("/signin", sessionHandler.SignIn)
			sessionGroup.POST("/signout", sessionHandler.SignOut)
			sessionGroup.POST("/refresh", sessionHandler.Refresh)

			// Token-verified identity echo, cloud mode only.
			if authClient != nil {
				authMW := middleware.NewAuthMiddleware(authClient, logger)
				sessionGroup.GET("/me", authMW.VerifyToken(), sessionHandler.Me)
			}
		}

		apiV1.GET("/notifications/pending", notificationHandler.ListPending)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "BillDue backend is healthy."})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	logger.Info("API routes configured successfully under /api/v1, /healthz and /metrics.")
}
