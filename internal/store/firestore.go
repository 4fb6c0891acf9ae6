// Package store holds the document store plumbing shared by the repositories.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// DefaultDatabase is used when no named database is configured
const DefaultDatabase = "(default)"

// emulatorHostEnv makes the Firestore SDK talk to a local emulator
const emulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// FirestoreConfig selects the project and database the repositories live in
type FirestoreConfig struct {
	ProjectID   string // required
	Database    string // empty means DefaultDatabase
	Credentials string // service account JSON, ignored against the emulator
}

// FirestoreClient is the Firestore connection shared by the project,
// subscription and user repositories
type FirestoreClient struct {
	client   *firestore.Client
	database string
	emulator string
}

// NewFirestoreClient connects to cfg's database, or to the emulator named
// by FIRESTORE_EMULATOR_HOST when set.
func NewFirestoreClient(ctx context.Context, cfg FirestoreConfig) (*FirestoreClient, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("projectID is required")
	}

	database := cfg.Database
	if database == "" {
		database = DefaultDatabase
	}

	emulator := os.Getenv(emulatorHostEnv)
	var opts []option.ClientOption
	if cfg.Credentials != "" && emulator == "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Credentials))
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, database, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreClient{
		client:   client,
		database: database,
		emulator: emulator,
	}, nil
}

// Client returns the SDK client the repositories are built on
func (f *FirestoreClient) Client() *firestore.Client {
	return f.client
}

// String describes the connection for startup logs
func (f *FirestoreClient) String() string {
	if f.emulator != "" {
		return fmt.Sprintf("database %s on emulator %s", f.database, f.emulator)
	}
	return "database " + f.database
}

// Close releases the connection. A client that never connected is a no-op.
func (f *FirestoreClient) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
