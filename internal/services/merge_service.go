package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/maynagashev/pdfmerge/internal/models"
	"github.com/maynagashev/pdfmerge/internal/pdf"
	"github.com/maynagashev/pdfmerge/internal/storage"
)

// Ошибки склейки.
var (
	ErrTooFewInputs     = errors.New("для склейки нужно минимум 2 файла")
	ErrArtifactNotFound = errors.New("файл не найден или уже использован")
	ErrMergeRead        = errors.New("ошибка чтения PDF при склейке")
)

// MergeService определяет интерфейс склейки staged-артефактов.
type MergeService interface {
	Merge(ctx context.Context, fileOrder []string, compress bool) (*models.MergeResult, error)
}

var _ MergeService = (*mergeService)(nil)

type mergeService struct {
	storage storage.ArtifactStorage
	codec   pdf.Codec
}

// NewMergeService создает новый экземпляр сервиса склейки.
func NewMergeService(st storage.ArtifactStorage, codec pdf.Codec) MergeService {
	return &mergeService{storage: st, codec: codec}
}

// Merge склеивает staged-артефакты в порядке fileOrder в один result-артефакт.
//
// Staged-входы одноразовые: успешная склейка удаляет их, повтор того же
// запроса закончится ErrArtifactNotFound. Ошибка чтения любого входа тоже
// потребляет все перечисленные в запросе артефакты — частичный результат
// не возвращается никогда.
func (s *mergeService) Merge(ctx context.Context, fileOrder []string, compress bool) (*models.MergeResult, error) {
	if len(fileOrder) < MinBatchFiles {
		return nil, ErrTooFewInputs
	}

	// Существование входа проверяется самим открытием: отдельная проба
	// только расширила бы окно гонки с фоновой чисткой.
	inputs := make([]io.ReadSeeker, 0, len(fileOrder))
	var opened []io.Closer
	closeAll := func() {
		for _, c := range opened {
			_ = c.Close()
		}
	}
	for _, key := range fileOrder {
		if !storage.IsStagedKey(key) {
			closeAll()
			return nil, fmt.Errorf("%w: '%s'", ErrArtifactNotFound, key)
		}
		rc, err := s.storage.Open(ctx, key)
		if err != nil {
			closeAll()
			if errors.Is(err, storage.ErrObjectNotFound) {
				return nil, fmt.Errorf("%w: '%s'", ErrArtifactNotFound, key)
			}
			s.consumeAll(ctx, fileOrder)
			return nil, fmt.Errorf("%w: '%s': %v", ErrMergeRead, key, err)
		}
		inputs = append(inputs, rc)
		opened = append(opened, rc)
	}

	var merged bytes.Buffer
	if err := s.codec.Merge(inputs, &merged); err != nil {
		closeAll()
		s.consumeAll(ctx, fileOrder)
		return nil, fmt.Errorf("%w: %v", ErrMergeRead, err)
	}
	closeAll()

	out := merged.Bytes()
	if compress {
		var compressed bytes.Buffer
		if err := s.codec.Compress(bytes.NewReader(out), &compressed); err != nil {
			s.consumeAll(ctx, fileOrder)
			return nil, fmt.Errorf("%w: %v", ErrMergeRead, err)
		}
		out = compressed.Bytes()
	}

	// Итоговое число страниц — сумма страниц входов; считаем его по
	// собранному документу, заодно перепроверяя результат кодека.
	pages, err := s.codec.PageCount(bytes.NewReader(out))
	if err != nil {
		s.consumeAll(ctx, fileOrder)
		return nil, fmt.Errorf("%w: %v", ErrMergeRead, err)
	}

	key, err := s.storage.Put(ctx, storage.CategoryResult, "", bytes.NewReader(out), int64(len(out)))
	if err != nil {
		log.Printf("[MergeService] Ошибка сохранения результата склейки: %v", err)
		s.consumeAll(ctx, fileOrder)
		return nil, fmt.Errorf("ошибка сохранения результата склейки: %w", err)
	}

	s.consumeAll(ctx, fileOrder)

	log.Printf("[MergeService] Склейка завершена: '%s', %d страниц, %d байт (compress=%v)",
		key, pages, len(out), compress)
	return &models.MergeResult{
		MergedFile: key,
		FileSize:   int64(len(out)),
		PageCount:  pages,
		Compressed: compress,
	}, nil
}

// consumeAll удаляет все staged-артефакты запроса. Ошибки удаления не
// поднимаются наверх: судьба запроса уже решена, остатки подберёт
// фоновая чистка.
func (s *mergeService) consumeAll(ctx context.Context, keys []string) {
	for _, key := range keys {
		if !s.storage.Delete(ctx, key) {
			log.Printf("[MergeService] Артефакт '%s' уже отсутствует или не удалился", key)
		}
	}
}
