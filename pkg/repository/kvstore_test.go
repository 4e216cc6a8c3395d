package repository_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/flashfusion/forge/pkg/repository"
	"github.com/m-mizutani/gt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// testKVStore runs the behavior every KVStore backend must share
func testKVStore(t *testing.T, kv repository.KVStore, key string) {
	ctx := context.Background()
	t.Cleanup(func() { _ = kv.Delete(ctx, key) })

	t.Run("missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, key)
		gt.True(t, errors.Is(err, repository.ErrKeyNotFound))
	})

	t.Run("set and get", func(t *testing.T) {
		gt.NoError(t, kv.Set(ctx, key, []byte(`[{"id":"a"}]`)))
		got, err := kv.Get(ctx, key)
		gt.NoError(t, err)
		gt.Equal(t, string(got), `[{"id":"a"}]`)
	})

	t.Run("overwrite", func(t *testing.T) {
		gt.NoError(t, kv.Set(ctx, key, []byte(`[]`)))
		got, err := kv.Get(ctx, key)
		gt.NoError(t, err)
		gt.Equal(t, string(got), `[]`)
	})

	t.Run("delete", func(t *testing.T) {
		gt.NoError(t, kv.Delete(ctx, key))
		_, err := kv.Get(ctx, key)
		gt.True(t, errors.Is(err, repository.ErrKeyNotFound))

		// deleting again is fine
		gt.NoError(t, kv.Delete(ctx, key))
	})
}

func TestMemory(t *testing.T) {
	testKVStore(t, repository.NewMemory(), "history")
}

func TestMemoryQuota(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemory(repository.WithMemoryQuota(32))

	gt.NoError(t, kv.Set(ctx, "k", make([]byte, 20)))

	err := kv.Set(ctx, "other", make([]byte, 20))
	gt.True(t, errors.Is(err, repository.ErrQuotaExceeded))

	// replacing the same key only counts the new value
	gt.NoError(t, kv.Set(ctx, "k", make([]byte, 30)))
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemory()

	value := []byte("abc")
	gt.NoError(t, kv.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := kv.Get(ctx, "k")
	gt.NoError(t, err)
	gt.Equal(t, string(got), "abc")
}

func TestFile(t *testing.T) {
	kv, err := repository.NewFile(t.TempDir())
	gt.NoError(t, err)
	testKVStore(t, kv, "flashfusion/history")
}

func TestFileQuota(t *testing.T) {
	ctx := context.Background()
	kv, err := repository.NewFile(t.TempDir(), repository.WithFileQuota(100))
	gt.NoError(t, err)

	gt.NoError(t, kv.Set(ctx, "a", make([]byte, 60)))
	err = kv.Set(ctx, "b", make([]byte, 60))
	gt.True(t, errors.Is(err, repository.ErrQuotaExceeded))

	gt.NoError(t, kv.Set(ctx, "a", make([]byte, 90)))
}

func TestNewFileRequiresDir(t *testing.T) {
	_, err := repository.NewFile("")
	gt.Error(t, err)
}

func TestIsFirestoreSizeError(t *testing.T) {
	gt.True(t, repository.IsFirestoreSizeErrorForTest(status.Error(codes.ResourceExhausted, "quota")))
	gt.True(t, repository.IsFirestoreSizeErrorForTest(
		status.Error(codes.InvalidArgument, "Document exceeds the maximum allowed size of 1,048,576 bytes.")))
	gt.False(t, repository.IsFirestoreSizeErrorForTest(status.Error(codes.InvalidArgument, "bad field path")))
	gt.False(t, repository.IsFirestoreSizeErrorForTest(errors.New("network down")))
}

func TestFirestore(t *testing.T) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	kv, err := repository.NewFirestore(context.Background(), projectID, databaseID,
		repository.WithCollection("forge-test-kv"))
	gt.NoError(t, err)
	defer kv.Close()

	testKVStore(t, kv, "history/"+strconv.FormatInt(int64(os.Getpid()), 10))
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}

	kv, err := repository.NewRedis(context.Background(), addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	gt.NoError(t, err)
	defer kv.Close()

	testKVStore(t, kv, "test-history")
}
