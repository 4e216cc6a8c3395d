package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultKVCollection = "kv"

	// Firestore documents are limited to 1 MiB including field names and
	// metadata; keep a margin below it.
	maxFirestoreValueSize = 1_000_000
)

// Firestore stores each key as a document of a single collection
type Firestore struct {
	client     *firestore.Client
	collection string
}

type kvDocument struct {
	Value     []byte    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// FirestoreOption configures Firestore
type FirestoreOption func(*Firestore)

// WithCollection overrides the collection that holds the key documents
func WithCollection(name string) FirestoreOption {
	return func(f *Firestore) {
		f.collection = name
	}
}

// NewFirestore connects to the given project and database
func NewFirestore(ctx context.Context, projectID, databaseID string, opts ...FirestoreOption) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	f := &Firestore{
		client:     client,
		collection: defaultKVCollection,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Close releases the underlying client
func (f *Firestore) Close() error {
	return f.client.Close()
}

// docID maps a key to a valid document ID; '/' is reserved by Firestore
func docID(key string) string {
	return strings.ReplaceAll(key, "/", "%2F")
}

func (f *Firestore) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := f.client.Collection(f.collection).Doc(docID(key)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, goerr.Wrap(ErrKeyNotFound, "firestore get", goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get document", goerr.V("key", key))
	}

	var doc kvDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode document", goerr.V("key", key))
	}
	return doc.Value, nil
}

func (f *Firestore) Set(ctx context.Context, key string, value []byte) error {
	if len(value) > maxFirestoreValueSize {
		return goerr.Wrap(ErrQuotaExceeded, "firestore set",
			goerr.V("key", key), goerr.V("size", len(value)))
	}

	doc := &kvDocument{Value: value, UpdatedAt: time.Now()}
	_, err := f.client.Collection(f.collection).Doc(docID(key)).Set(ctx, doc)
	if err == nil {
		return nil
	}
	if isFirestoreSizeError(err) {
		return goerr.Wrap(ErrQuotaExceeded, err.Error(), goerr.V("key", key))
	}
	return goerr.Wrap(err, "failed to set document", goerr.V("key", key))
}

// isFirestoreSizeError reports whether err is a quota or document size
// rejection from Firestore
func isFirestoreSizeError(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.ResourceExhausted:
		return true
	case codes.InvalidArgument:
		return strings.Contains(st.Message(), "maximum allowed size")
	default:
		return false
	}
}

func (f *Firestore) Delete(ctx context.Context, key string) error {
	if _, err := f.client.Collection(f.collection).Doc(docID(key)).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete document", goerr.V("key", key))
	}
	return nil
}
