package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"billdue-backend-go/internal/api"
	"billdue-backend-go/internal/config"
	"billdue-backend-go/internal/core"
	"billdue-backend-go/internal/db"
	"billdue-backend-go/internal/gateway"
	"billdue-backend-go/internal/logging"
	"billdue-backend-go/internal/metrics"
	"billdue-backend-go/internal/middleware"
	"billdue-backend-go/internal/session"
)

// autoResolveInterval is how often the due sweep marks AutoMarkPaid
// bills whose due date has passed.
const autoResolveInterval = time.Hour

func main() {
	// --- 1. Load environment and configuration ---
	// A missing .env file is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFile)
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded successfully.")

	// --- 3. Initialize Firebase Admin SDK (optional, cloud mode only) ---
	var firebaseClients *db.FirebaseClients
	if appConfig.CloudSyncConfigured() {
		initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
		if firebaseClients, err = db.NewFirebaseClients(initCtx, appConfig); err != nil {
			cancelInitCtx()
			zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
		}
		cancelInitCtx()
		defer firebaseClients.Close()
		zapLogger.Info("Firebase Admin SDK (Firestore, Auth) initialized successfully.")
	} else {
		zapLogger.Warn("Cloud sync disabled: FIREBASE_PROJECT_ID not set. Running local-only.")
	}

	// --- 4. Initialize local storage (SQLite) ---
	localStore, err := db.NewLocalStore(appConfig.LocalDBPath)
	if err != nil {
		zapLogger.Fatal("Failed to open local store", zap.Error(err), zap.String("path", appConfig.LocalDBPath))
	}
	defer localStore.Close()
	zapLogger.Info("Local store opened.", zap.String("path", appConfig.LocalDBPath))

	// --- 5. Initialize metrics and the notification gateway ---
	appMetrics := metrics.New()

	var notifier gateway.Notifier
	if appConfig.NotificationWebhookURL != "" {
		notifier = gateway.NewWebhookNotifier(appConfig.NotificationWebhookURL, appConfig.NotificationUsername, zapLogger)
		zapLogger.Info("Webhook notifier configured.")
	} else {
		notifier = gateway.NewLogNotifier(zapLogger)
	}

	notificationGateway := gateway.NewTimerGateway(gateway.TimerGatewayConfig{
		Enabled:  appConfig.NotificationsEnabled,
		Notifier: notifier,
		Logger:   zapLogger,
		Metrics:  appMetrics,
	})
	defer notificationGateway.Close()

	// --- 6. Initialize core services ---
	billStore := core.NewBillStore(localStore, localStore, zapLogger)

	var remoteFactory core.RemoteFactory
	if firebaseClients != nil {
		remoteFactory = func(userID string) (db.BillRepository, db.SettingsRepository) {
			return db.NewFirestoreBillRepository(firebaseClients.Firestore, userID),
				db.NewFirestoreSettingsRepository(firebaseClients.Firestore, userID)
		}
	}

	coordinator := core.NewSyncCoordinator(billStore, localStore, remoteFactory, notificationGateway, zapLogger, appMetrics)
	supervisor := core.NewScheduleSupervisor(billStore, notificationGateway, zapLogger, appMetrics)
	defer supervisor.Close()
	billStore.Subscribe(supervisor.OnChange)
	zapLogger.Info("Core services initialized successfully.")

	// --- 7. Start the session event loop and load the initial snapshot ---
	sessionProvider := session.NewProvider()
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go coordinator.Run(runCtx, sessionProvider.Events())

	if err := coordinator.LoadLocal(runCtx); err != nil {
		zapLogger.Fatal("Failed to load local bills", zap.Error(err))
	}

	// --- 8. Start the hourly auto-resolve sweep ---
	go func() {
		ticker := time.NewTicker(autoResolveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case now := <-ticker.C:
				billStore.AutoResolveDue(runCtx, now)
			}
		}
	}()

	// --- 9. Setup Gin HTTP engine and global middleware ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	// --- 10. Setup API routes ---
	var authClient *auth.Client
	if firebaseClients != nil {
		authClient = firebaseClients.Auth
	}
	api.SetupRoutes(
		router,
		zapLogger,
		billStore,
		notificationGateway,
		sessionProvider,
		authClient,
		appMetrics,
	)

	// --- 11. Configure and start the HTTP server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 12. Graceful shutdown handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	sessionProvider.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
