package firebase

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Mica1614/seims-ai-scanner/internal/config"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func record() config.FirebaseConfig {
	return config.FirebaseConfig{
		APIKey:            "k",
		AuthDomain:        "d",
		ProjectID:         "p",
		StorageBucket:     "b",
		MessagingSenderID: "s",
		AppID:             "a",
	}
}

// offline points the SDKs at emulator addresses so nothing dials real endpoints.
func offline(t *testing.T) []option.ClientOption {
	t.Helper()
	t.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8681")
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", "127.0.0.1:9099")
	return []option.ClientOption{option.WithoutAuthentication()}
}

func initApp(t *testing.T) *App {
	t.Helper()
	app, err := Initialize(context.Background(), record(), offline(t)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestInitialize_BindsDataClientToProject(t *testing.T) {
	app := initApp(t)
	assert.Equal(t, "p", app.ProjectID())
	assert.Equal(t, record(), app.Config())

	fs, err := GetDataClient(context.Background(), app)
	require.NoError(t, err)
	require.NotNil(t, fs)

	path := fs.Collection("scans").Path
	assert.True(t, strings.HasPrefix(path, DatabasePath("p")+"/documents/"), path)
}

func TestInitialize_TrimsRecord(t *testing.T) {
	cfg := record()
	cfg.ProjectID = "  p  "

	app, err := Initialize(context.Background(), cfg, offline(t)...)
	require.NoError(t, err)
	assert.Equal(t, "p", app.ProjectID())
}

func TestInitialize_MissingProjectID(t *testing.T) {
	cfg := record()
	cfg.ProjectID = ""

	app, err := Initialize(context.Background(), cfg, offline(t)...)
	require.Error(t, err)
	assert.Nil(t, app)
	assert.True(t, config.IsErrMissingField(err))
	assert.Contains(t, err.Error(), "projectId")
}

func TestInitialize_MissingEachKey(t *testing.T) {
	opts := offline(t)
	blank := map[string]func(*config.FirebaseConfig){
		"apiKey":            func(c *config.FirebaseConfig) { c.APIKey = "" },
		"authDomain":        func(c *config.FirebaseConfig) { c.AuthDomain = "" },
		"projectId":         func(c *config.FirebaseConfig) { c.ProjectID = "" },
		"storageBucket":     func(c *config.FirebaseConfig) { c.StorageBucket = "" },
		"messagingSenderId": func(c *config.FirebaseConfig) { c.MessagingSenderID = "" },
		"appId":             func(c *config.FirebaseConfig) { c.AppID = "\t" },
	}
	for key, fn := range blank {
		t.Run(key, func(t *testing.T) {
			cfg := record()
			fn(&cfg)

			app, err := Initialize(context.Background(), cfg, opts...)
			require.Error(t, err)
			assert.Nil(t, app)
			assert.True(t, config.IsErrMissingField(err))
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestDataClient_ReturnsSameInstance(t *testing.T) {
	app := initApp(t)
	ctx := context.Background()

	first, err := app.DataClient(ctx)
	require.NoError(t, err)
	second, err := app.DataClient(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestDataClient_ConcurrentFirstUse(t *testing.T) {
	app := initApp(t)

	const n = 8
	got := make([]*firestore.Client, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := app.DataClient(context.Background())
			if err == nil {
				got[i] = c
			}
		}(i)
	}
	wg.Wait()

	require.NotNil(t, got[0])
	for i := 1; i < n; i++ {
		assert.Same(t, got[0], got[i])
	}
}

func TestDataClient_AfterClose(t *testing.T) {
	app := initApp(t)
	_, err := app.DataClient(context.Background())
	require.NoError(t, err)

	require.NoError(t, app.Close())
	require.NoError(t, app.Close())

	_, err = app.DataClient(context.Background())
	assert.True(t, IsErrClosed(err))
}

// serviceAccountJSON builds a key file shaped like the one the Firebase
// console downloads, with a freshly generated key.
func serviceAccountJSON(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	data, err := json.Marshal(map[string]string{
		"type":                        "service_account",
		"project_id":                  "p",
		"private_key_id":              "0123456789abcdef",
		"private_key":                 string(pemKey),
		"client_email":                "firebase-adminsdk@p.iam.gserviceaccount.com",
		"client_id":                   "1234567890",
		"auth_uri":                    "https://accounts.google.com/o/oauth2/auth",
		"token_uri":                   "https://oauth2.googleapis.com/token",
		"auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
		"client_x509_cert_url":        "https://www.googleapis.com/robot/v1/metadata/x509/firebase-adminsdk%40p.iam.gserviceaccount.com",
		"universe_domain":             "googleapis.com",
	})
	require.NoError(t, err)
	require.Contains(t, string(data), `\n`, "private key newlines must be JSON escapes")
	return string(data)
}

func TestDataClient_InlineServiceAccountJSON(t *testing.T) {
	t.Setenv("FIRESTORE_EMULATOR_HOST", "")
	ctx := context.Background()

	opts, err := ClientOptions(config.Config{CredentialsJSON: serviceAccountJSON(t)})
	require.NoError(t, err)

	app, err := Initialize(ctx, record(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	fs, err := app.DataClient(ctx)
	require.NoError(t, err)
	projectID, _ := Binding(fs)
	assert.Equal(t, "p", projectID)
}

func TestDataClient_FailureIsNotCached(t *testing.T) {
	t.Setenv("FIRESTORE_EMULATOR_HOST", "")
	ctx := context.Background()

	app, err := Initialize(ctx, record(), option.WithCredentialsJSON([]byte(`{"type":`)))
	require.NoError(t, err)

	_, err = app.DataClient(ctx)
	require.Error(t, err)
	assert.Nil(t, app.firestore)

	_, err = app.DataClient(ctx)
	require.Error(t, err)
	assert.Nil(t, app.firestore)
}

func TestCredentialsJSON(t *testing.T) {
	valid := serviceAccountJSON(t)
	assert.Equal(t, valid, string(credentialsJSON(valid)))

	// an env file that kept a line break as a literal backslash-n
	escaped := `{"type":"service_account"}\n`
	got := credentialsJSON(escaped)
	assert.True(t, json.Valid(got))
	assert.Equal(t, "{\"type\":\"service_account\"}\n", string(got))
}

func TestBinding(t *testing.T) {
	t.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8681")
	fs, err := firestore.NewClient(context.Background(), "seims-pro", option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })

	projectID, database := Binding(fs)
	assert.Equal(t, "seims-pro", projectID)
	assert.Equal(t, DatabasePath("seims-pro"), database)

	projectID, database = Binding(nil)
	assert.Empty(t, projectID)
	assert.Empty(t, database)
}

func TestNilApp(t *testing.T) {
	var app *App
	ctx := context.Background()

	_, err := app.DataClient(ctx)
	assert.True(t, IsErrNotInitialized(err))
	_, err = GetDataClient(ctx, nil)
	assert.True(t, IsErrNotInitialized(err))
	_, err = app.Auth(ctx)
	assert.True(t, errors.Is(err, ErrNotInitialized))
	_, err = NewClients(ctx, nil)
	assert.True(t, IsErrNotInitialized(err))
	assert.NoError(t, app.Close())
}

func TestAuth_ReturnsSameInstance(t *testing.T) {
	app := initApp(t)
	ctx := context.Background()

	first, err := app.Auth(ctx)
	require.NoError(t, err)
	second, err := app.Auth(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestDatabasePath(t *testing.T) {
	assert.Equal(t, "projects/seims-pro/databases/(default)", DatabasePath("seims-pro"))
}

func TestClientOptions(t *testing.T) {
	t.Run("emulator", func(t *testing.T) {
		t.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8681")
		opts, err := ClientOptions(config.Config{CredentialsJSON: `{"type":"service_account"}`})
		require.NoError(t, err)
		assert.Len(t, opts, 1)
	})

	t.Run("inline json", func(t *testing.T) {
		t.Setenv("FIRESTORE_EMULATOR_HOST", "")
		opts, err := ClientOptions(config.Config{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/does/not/matter"})
		require.NoError(t, err)
		assert.Len(t, opts, 1)
	})

	t.Run("file", func(t *testing.T) {
		t.Setenv("FIRESTORE_EMULATOR_HOST", "")
		path := filepath.Join(t.TempDir(), "sa.json")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

		opts, err := ClientOptions(config.Config{CredentialsFile: path})
		require.NoError(t, err)
		assert.Len(t, opts, 1)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("FIRESTORE_EMULATOR_HOST", "")
		_, err := ClientOptions(config.Config{CredentialsFile: filepath.Join(t.TempDir(), "nope.json")})
		require.Error(t, err)
		assert.True(t, config.IsErrInvalidConfig(err))
	})

	t.Run("application default", func(t *testing.T) {
		t.Setenv("FIRESTORE_EMULATOR_HOST", "")
		opts, err := ClientOptions(config.Config{})
		require.NoError(t, err)
		assert.Empty(t, opts)
	})
}
