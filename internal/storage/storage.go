package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category определяет назначение артефакта в хранилище.
type Category string

const (
	// CategoryStaged — загруженные файлы, ожидающие склейки.
	CategoryStaged Category = "staged"
	// CategoryResult — результаты склейки, ожидающие скачивания.
	CategoryResult Category = "result"
)

// Префиксы и суффиксы ключей. Ключ одновременно является именем файла
// в плоском каталоге, поэтому категория восстанавливается из имени.
const (
	stagedPrefix = "temp_"
	resultPrefix = "merged_"
	resultSuffix = ".pdf"
)

// ArtifactInfo описывает артефакт при перечислении хранилища.
type ArtifactInfo struct {
	Key string
	Age time.Duration
}

// ArtifactStorage определяет интерфейс временного хранилища артефактов.
// Ключ генерируется при записи и является единственным идентификатором:
// никакого индекса в памяти нет, существование определяется пробой по имени.
// Артефакт может исчезнуть между любыми двумя вызовами (фоновая чистка,
// конкурирующая склейка) — это штатная ситуация, а не нарушение инварианта.
type ArtifactStorage interface {
	// Put сохраняет поток как новый артефакт и возвращает его ключ.
	Put(ctx context.Context, category Category, suggestedName string, reader io.Reader, size int64) (string, error)
	// Exists сообщает, существует ли артефакт с данным ключом прямо сейчас.
	Exists(ctx context.Context, key string) bool
	// Open открывает артефакт на чтение. Если артефакта нет,
	// возвращается ErrObjectNotFound.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)
	// Delete удаляет артефакт. Возвращает false, если артефакта уже нет
	// или удаление не удалось; ошибки наверх не поднимаются — все пути
	// удаления в системе либо опортунистическая чистка, либо
	// best-effort-потребление после того, как основной результат
	// уже определён.
	Delete(ctx context.Context, key string) bool
	// List перечисляет артефакты категории с их возрастом.
	List(ctx context.Context, category Category) ([]ArtifactInfo, error)
}

// ErrObjectNotFound возвращается Open, когда артефакта с таким ключом нет.
var ErrObjectNotFound = errors.New("артефакт не найден в хранилище")

// NewKey генерирует уникальный ключ артефакта. Уникальность обеспечивается
// UUID; очищенное имя файла добавляется к staged-ключам только для удобства
// отладки и на уникальность не влияет.
func NewKey(category Category, suggestedName string) string {
	id := uuid.New().String()
	if category == CategoryResult {
		return resultPrefix + id + resultSuffix
	}
	return stagedPrefix + id + "_" + SanitizeFilename(suggestedName)
}

func (c Category) prefix() string {
	if c == CategoryResult {
		return resultPrefix
	}
	return stagedPrefix
}

// IsStagedKey сообщает, выглядит ли ключ как staged-артефакт.
func IsStagedKey(key string) bool {
	return isFlatName(key) && strings.HasPrefix(key, stagedPrefix)
}

// IsResultKey сообщает, выглядит ли ключ как result-артефакт.
// Скачивать разрешено только такие ключи — это белый список, закрывающий
// доступ к staged-артефактам и посторонним файлам в том же каталоге.
func IsResultKey(key string) bool {
	return isFlatName(key) &&
		strings.HasPrefix(key, resultPrefix) &&
		strings.HasSuffix(key, resultSuffix)
}

// isFlatName проверяет, что ключ не выходит за пределы плоского каталога.
func isFlatName(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, "/\\")
}

// SanitizeFilename приводит клиентское имя файла к безопасному виду:
// отбрасывает путь, заменяет управляющие и специальные символы на '_'.
func SanitizeFilename(name string) string {
	// Отрезаем путь независимо от разделителя клиентской ОС.
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	sanitized := strings.Trim(b.String(), "._")
	if sanitized == "" {
		return "file"
	}
	return sanitized
}
