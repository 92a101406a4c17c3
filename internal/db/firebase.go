package db

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"billdue-backend-go/internal/config"
)

// FirebaseClients bundles the Firestore and Auth clients for the cloud
// mode. It is constructed once in main and injected into the components
// that need it; there is no package-global accessor.
type FirebaseClients struct {
	Firestore *firestore.Client
	Auth      *auth.Client
}

// NewFirebaseClients initializes the Firebase Admin SDK from the
// application config. Credentials come from a service account file, a
// base64-encoded service account JSON, or Application Default
// Credentials, in that order of preference.
func NewFirebaseClients(ctx context.Context, cfg *config.Config) (*FirebaseClients, error) {
	var opts []option.ClientOption
	switch {
	case cfg.GoogleApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleApplicationCredentials))
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_SERVICE_ACCOUNT_JSON_BASE64: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	}
	// With no explicit option the SDK falls back to ADC, which is the
	// normal setup on GCP runtimes.

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Firestore: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fsClient.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}

	return &FirebaseClients{Firestore: fsClient, Auth: authClient}, nil
}

// Close releases the Firestore client.
func (c *FirebaseClients) Close() error {
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}
