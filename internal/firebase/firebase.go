package firebase

import (
	"context"
	"fmt"
	"sync"

	"github.com/Mica1614/seims-ai-scanner/internal/config"
	"github.com/Mica1614/seims-ai-scanner/internal/log"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	fbstorage "firebase.google.com/go/v4/storage"
	"google.golang.org/api/option"
)

// App is an initialized Firebase app plus the service clients derived from it.
// Each client is created on first use and reused afterwards.
type App struct {
	fb  *firebase.App
	cfg config.FirebaseConfig

	mu        sync.Mutex
	firestore *firestore.Client
	auth      *auth.Client
	storage   *fbstorage.Client
	messaging *messaging.Client
	closed    bool
}

// Initialize validates cfg and creates the Firebase app. It fails before
// touching the SDK when a key of the record is missing.
func Initialize(ctx context.Context, cfg config.FirebaseConfig, opts ...option.ClientOption) (*App, error) {
	cfg.Trim()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("firebase config: %w", err)
	}

	fb, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	logger := log.WithComponent("firebase")
	logger.Info().
		Str("project", cfg.ProjectID).
		Str("authDomain", cfg.AuthDomain).
		Str("bucket", cfg.StorageBucket).
		Msg("firebase app initialized")

	return &App{fb: fb, cfg: cfg}, nil
}

// Config returns the record the app was initialized with.
func (a *App) Config() config.FirebaseConfig { return a.cfg }

func (a *App) ProjectID() string { return a.cfg.ProjectID }

func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	if a == nil || a.fb == nil {
		return nil, ErrNotInitialized
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.auth != nil {
		return a.auth, nil
	}
	c, err := a.fb.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	a.auth = c
	return c, nil
}

// Storage returns the Firebase storage client; use Bucket for the configured bucket.
func (a *App) Storage(ctx context.Context) (*fbstorage.Client, error) {
	if a == nil || a.fb == nil {
		return nil, ErrNotInitialized
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.storage != nil {
		return a.storage, nil
	}
	c, err := a.fb.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase storage client: %w", err)
	}
	a.storage = c
	return c, nil
}

func (a *App) Messaging(ctx context.Context) (*messaging.Client, error) {
	if a == nil || a.fb == nil {
		return nil, ErrNotInitialized
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.messaging != nil {
		return a.messaging, nil
	}
	c, err := a.fb.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging client: %w", err)
	}
	a.messaging = c
	return c, nil
}

// Close releases the Firestore client. Safe to call more than once.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.firestore == nil {
		return nil
	}
	return a.firestore.Close()
}

// Bucket returns a handle to the configured storage bucket.
func (a *App) Bucket(ctx context.Context) (*storage.BucketHandle, error) {
	c, err := a.Storage(ctx)
	if err != nil {
		return nil, err
	}
	b, err := c.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("storage bucket %q: %w", a.cfg.StorageBucket, err)
	}
	return b, nil
}
