package services_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/pdfmerge/internal/services"
	"github.com/maynagashev/pdfmerge/internal/storage"
)

// putWithAge кладёт артефакт и выставляет ему возраст через mtime.
func putWithAge(t *testing.T, st storage.ArtifactStorage, dir string, category storage.Category, age time.Duration) string {
	t.Helper()
	payload := []byte("данные")
	key, err := st.Put(context.Background(), category, "old.pdf", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(filepath.Join(dir, key), stamp, stamp))
	return key
}

func TestCleanupService_ReapOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := storage.NewDiskStorage(dir)
	require.NoError(t, err)

	expiredStaged := putWithAge(t, st, dir, storage.CategoryStaged, 2*time.Hour)
	expiredResult := putWithAge(t, st, dir, storage.CategoryResult, 90*time.Minute)
	freshStaged := putWithAge(t, st, dir, storage.CategoryStaged, 5*time.Minute)

	svc := services.NewCleanupService(st, time.Minute, time.Hour, time.Minute)
	svc.ReapOnce(ctx)

	// Просроченные артефакты обеих категорий удалены, свежие остались.
	assert.False(t, st.Exists(ctx, expiredStaged))
	assert.False(t, st.Exists(ctx, expiredResult))
	assert.True(t, st.Exists(ctx, freshStaged))
}

func TestCleanupService_ScheduleDeletion(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	payload := []byte("результат")
	key, err := st.Put(ctx, storage.CategoryResult, "", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	svc := services.NewCleanupService(st, time.Hour, time.Hour, 20*time.Millisecond)
	svc.ScheduleDeletion(key)

	// Сразу после планирования артефакт ещё на месте.
	assert.True(t, st.Exists(ctx, key))

	require.Eventually(t, func() bool {
		return !st.Exists(ctx, key)
	}, time.Second, 10*time.Millisecond, "результат должен быть удалён после задержки")
}

func TestCleanupService_DoubleDeletionSafe(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)

	payload := []byte("результат")
	key, err := st.Put(ctx, storage.CategoryResult, "", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	svc := services.NewCleanupService(st, time.Hour, time.Hour, 10*time.Millisecond)

	// Оба пути очистки могут бороться за один ключ — оба безопасны.
	svc.ScheduleDeletion(key)
	svc.ScheduleDeletion(key)
	require.Eventually(t, func() bool {
		return !st.Exists(ctx, key)
	}, time.Second, 5*time.Millisecond)

	// Повторный проход чистки по уже пустому хранилищу не падает.
	svc.ReapOnce(ctx)
}

func TestCleanupService_RunStopsOnContextCancel(t *testing.T) {
	st := newTestStorage(t)
	svc := services.NewCleanupService(st, 10*time.Millisecond, time.Hour, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("цикл очистки не остановился после отмены контекста")
	}
}
