package services

import (
	"context"
	"log"
	"time"

	"github.com/maynagashev/pdfmerge/internal/storage"
)

// Параметры фоновой очистки по умолчанию.
const (
	DefaultReapInterval  = 30 * time.Minute
	DefaultRetention     = time.Hour
	DefaultDownloadDelay = time.Minute
)

// DeletionScheduler планирует отложенное удаление артефакта по ключу.
type DeletionScheduler interface {
	ScheduleDeletion(key string)
}

// CleanupService периодически удаляет просроченные артефакты и выполняет
// отложенное удаление уже скачанных результатов. Оба пути независимы,
// идемпотентны и общаются с хранилищем только через Delete — общего
// состояния с обработчиками запросов у них нет, двойное удаление
// безопасно по контракту хранилища.
type CleanupService struct {
	storage       storage.ArtifactStorage
	interval      time.Duration
	retention     time.Duration
	downloadDelay time.Duration
}

var _ DeletionScheduler = (*CleanupService)(nil)

// NewCleanupService создает сервис очистки. Неположительные параметры
// заменяются значениями по умолчанию.
func NewCleanupService(st storage.ArtifactStorage, interval, retention, downloadDelay time.Duration) *CleanupService {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	if downloadDelay <= 0 {
		downloadDelay = DefaultDownloadDelay
	}
	return &CleanupService{
		storage:       st,
		interval:      interval,
		retention:     retention,
		downloadDelay: downloadDelay,
	}
}

// Run запускает цикл очистки и работает до отмены контекста.
func (s *CleanupService) Run(ctx context.Context) {
	log.Printf("[CleanupService] Фоновая очистка запущена (интервал %s, срок хранения %s)",
		s.interval, s.retention)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[CleanupService] Фоновая очистка остановлена")
			return
		case <-ticker.C:
			s.ReapOnce(ctx)
		}
	}
}

// ReapOnce удаляет артефакты обеих категорий старше срока хранения.
// Это страховка для всего, что не было скачано или осталось после
// неудачной склейки.
func (s *CleanupService) ReapOnce(ctx context.Context) {
	for _, category := range []storage.Category{storage.CategoryStaged, storage.CategoryResult} {
		infos, err := s.storage.List(ctx, category)
		if err != nil {
			log.Printf("[CleanupService] Ошибка перечисления артефактов (%s): %v", category, err)
			continue
		}
		for _, info := range infos {
			if info.Age <= s.retention {
				continue
			}
			if s.storage.Delete(ctx, info.Key) {
				log.Printf("[CleanupService] Просроченный артефакт '%s' удалён (возраст %s)",
					info.Key, info.Age.Round(time.Second))
			}
		}
	}
}

// ScheduleDeletion планирует одноразовое удаление ключа после задержки.
// Вызывается после успешной отдачи результата: задержка даёт клиенту
// дочитать поток, но не позволяет скачанному файлу задерживаться надолго.
func (s *CleanupService) ScheduleDeletion(key string) {
	time.AfterFunc(s.downloadDelay, func() {
		if s.storage.Delete(context.Background(), key) {
			log.Printf("[CleanupService] Скачанный результат '%s' удалён", key)
		}
	})
}
