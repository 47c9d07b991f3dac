package firebase

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
)

// DataClient returns the Firestore client bound to the app's default database.
// The first successful call creates it; later calls return the same client.
func (a *App) DataClient(ctx context.Context) (*firestore.Client, error) {
	if a == nil || a.fb == nil {
		return nil, ErrNotInitialized
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	if a.firestore != nil {
		return a.firestore, nil
	}
	c, err := a.fb.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	a.firestore = c
	return c, nil
}

// GetDataClient is DataClient in function form.
func GetDataClient(ctx context.Context, app *App) (*firestore.Client, error) {
	return app.DataClient(ctx)
}

// DatabasePath is the resource path of the default database of projectID.
func DatabasePath(projectID string) string {
	return "projects/" + projectID + "/databases/" + firestore.DefaultDatabaseID
}

// Binding reports the project id and database path a client is bound to.
func Binding(c *firestore.Client) (projectID, database string) {
	if c == nil {
		return "", ""
	}
	path := c.Collection("_").Path
	database, _, _ = strings.Cut(path, "/documents/")
	rest, ok := strings.CutPrefix(database, "projects/")
	if !ok {
		return "", database
	}
	projectID, _, _ = strings.Cut(rest, "/")
	return projectID, database
}
