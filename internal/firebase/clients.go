package firebase

import (
	"context"

	"github.com/Mica1614/seims-ai-scanner/internal/log"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
)

// Clients bundles the service clients handed to the HTTP layer.
// Storage and Messaging are optional and may be nil.
type Clients struct {
	App       *App
	Auth      *auth.Client
	Firestore *firestore.Client
	Bucket    *storage.BucketHandle
	Messaging *messaging.Client

	ProjectID  string
	BucketName string
}

func NewClients(ctx context.Context, app *App) (*Clients, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	logger := log.WithComponent("firebase")

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}

	fs, err := app.DataClient(ctx)
	if err != nil {
		return nil, err
	}

	out := &Clients{
		App:        app,
		Auth:       authClient,
		Firestore:  fs,
		ProjectID:  app.ProjectID(),
		BucketName: app.Config().StorageBucket,
	}

	if bucket, err := app.Bucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("storage bucket unavailable")
	} else {
		out.Bucket = bucket
	}

	if msg, err := app.Messaging(ctx); err != nil {
		logger.Warn().Err(err).Msg("messaging client unavailable")
	} else {
		out.Messaging = msg
	}

	return out, nil
}

// Close closes every client owned by the bundle.
func (c *Clients) Close() error {
	if c == nil {
		return nil
	}
	return c.App.Close()
}
