package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskStorage хранит артефакты в одном плоском каталоге файловой системы.
// Это состояние по умолчанию всей системы: каталог плюс соглашение об
// именах — единственные персистентные данные, без базы и без индекса.
type DiskStorage struct {
	dir string
}

// Проверка соответствия интерфейсу.
var _ ArtifactStorage = (*DiskStorage)(nil)

// NewDiskStorage создает хранилище в указанном каталоге.
// Пустой путь означает системный каталог временных файлов.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога хранилища '%s': %w", dir, err)
	}
	log.Printf("[DiskStorage] Хранилище артефактов инициализировано в каталоге '%s'", dir)
	return &DiskStorage{dir: dir}, nil
}

// Put сохраняет поток как новый артефакт и возвращает его ключ.
// O_EXCL гарантирует, что свежесгенерированный ключ не перезапишет
// существующий файл.
func (s *DiskStorage) Put(
	_ context.Context,
	category Category,
	suggestedName string,
	reader io.Reader,
	size int64,
) (string, error) {
	key := NewKey(category, suggestedName)
	pathname := filepath.Join(s.dir, key)

	f, err := os.OpenFile(pathname, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла артефакта '%s': %w", key, err)
	}

	written, err := io.Copy(f, reader)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(pathname)
		return "", fmt.Errorf("ошибка записи артефакта '%s': %w", key, err)
	}
	if size >= 0 && written != size {
		_ = os.Remove(pathname)
		return "", fmt.Errorf("артефакт '%s': записано %d байт вместо ожидаемых %d", key, written, size)
	}

	log.Printf("[DiskStorage] Артефакт '%s' записан (%d байт)", key, written)
	return key, nil
}

// Exists сообщает, существует ли артефакт с данным ключом прямо сейчас.
func (s *DiskStorage) Exists(_ context.Context, key string) bool {
	if !isFlatName(key) {
		return false
	}
	info, err := os.Stat(filepath.Join(s.dir, key))
	return err == nil && info.Mode().IsRegular()
}

// Open открывает артефакт на чтение.
func (s *DiskStorage) Open(_ context.Context, key string) (io.ReadSeekCloser, error) {
	if !isFlatName(key) {
		return nil, ErrObjectNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("ошибка открытия артефакта '%s': %w", key, err)
	}
	return f, nil
}

// Delete удаляет артефакт. Отсутствие файла и ошибки ввода-вывода
// равнозначны: артефакта больше нет или его подберёт фоновая чистка.
func (s *DiskStorage) Delete(_ context.Context, key string) bool {
	if !isFlatName(key) {
		return false
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[DiskStorage] Не удалось удалить артефакт '%s': %v", key, err)
		}
		return false
	}
	return true
}

// List перечисляет артефакты категории с их возрастом.
// Возраст считается от времени модификации файла — для артефактов,
// которые пишутся один раз, это и есть время создания.
func (s *DiskStorage) List(_ context.Context, category Category) ([]ArtifactInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка перечисления каталога '%s': %w", s.dir, err)
	}

	now := time.Now()
	var infos []ArtifactInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, category.prefix()) {
			continue
		}
		fi, statErr := entry.Info()
		if statErr != nil {
			// Файл мог исчезнуть между ReadDir и Info — пропускаем.
			continue
		}
		infos = append(infos, ArtifactInfo{Key: name, Age: now.Sub(fi.ModTime())})
	}
	return infos, nil
}
