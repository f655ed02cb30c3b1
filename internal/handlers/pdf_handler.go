package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/maynagashev/pdfmerge/internal/models"
	"github.com/maynagashev/pdfmerge/internal/services"
)

// Лимит буферизации multipart-формы в памяти, остальное уходит во
// временные файлы стандартной библиотеки.
const multipartMemoryLimit = 32 << 20

// PDFHandler обрабатывает HTTP-запросы загрузки, склейки и скачивания.
type PDFHandler struct {
	uploads   services.UploadService
	merges    services.MergeService
	downloads services.DownloadService
	scheduler services.DeletionScheduler
}

// NewPDFHandler создает новый экземпляр PDFHandler.
func NewPDFHandler(
	uploads services.UploadService,
	merges services.MergeService,
	downloads services.DownloadService,
	scheduler services.DeletionScheduler,
) *PDFHandler {
	return &PDFHandler{
		uploads:   uploads,
		merges:    merges,
		downloads: downloads,
		scheduler: scheduler,
	}
}

// Upload обрабатывает POST запрос на загрузку пакета PDF-файлов.
func (h *PDFHandler) Upload(w http.ResponseWriter, r *http.Request) {
	log.Println("[PDFHandler:Upload] Запрос на загрузку пакета файлов")

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Суммарный размер загрузки превышает %s", humanize.IBytes(uint64(maxErr.Limit))))
			return
		}
		log.Printf("[PDFHandler:Upload] Ошибка разбора multipart-запроса: %v", err)
		respondError(w, http.StatusBadRequest, "Некорректный multipart-запрос")
		return
	}
	defer func() {
		if removeErr := r.MultipartForm.RemoveAll(); removeErr != nil {
			log.Printf("[PDFHandler:Upload] Ошибка очистки multipart-формы: %v", removeErr)
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, "Файлы не переданы")
		return
	}

	files := make([]services.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			log.Printf("[PDFHandler:Upload] Не удалось открыть файл '%s' из формы: %v", fh.Filename, err)
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Не удалось прочитать файл '%s'", fh.Filename))
			return
		}
		defer func() { _ = f.Close() }()
		files = append(files, services.UploadedFile{Name: fh.Filename, Size: fh.Size, Reader: f})
	}

	staged, err := h.uploads.ProcessBatch(r.Context(), files)
	if err != nil {
		if isValidationError(err) {
			log.Printf("[PDFHandler:Upload] Пакет отклонён: %v", err)
			respondError(w, http.StatusBadRequest, err.Error())
		} else {
			log.Printf("[PDFHandler:Upload] Внутренняя ошибка при приёме пакета: %v", err)
			respondError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера при загрузке файлов")
		}
		return
	}

	respondJSON(w, http.StatusOK, models.UploadResponse{Files: staged})
	log.Printf("[PDFHandler:Upload] Принято файлов: %d", len(staged))
}

// Merge обрабатывает POST запрос на склейку загруженных файлов.
func (h *PDFHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req models.MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[PDFHandler:Merge] Ошибка декодирования запроса: %v", err)
		respondError(w, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	log.Printf("[PDFHandler:Merge] Запрос на склейку %d файлов (compress=%v)", len(req.FileOrder), req.Compress)

	result, err := h.merges.Merge(r.Context(), req.FileOrder, req.Compress)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTooFewInputs):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrArtifactNotFound):
			log.Printf("[PDFHandler:Merge] Вход не найден: %v", err)
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrMergeRead):
			log.Printf("[PDFHandler:Merge] Ошибка чтения входов: %v", err)
			respondError(w, http.StatusBadRequest, services.ErrMergeRead.Error())
		default:
			log.Printf("[PDFHandler:Merge] Внутренняя ошибка склейки: %v", err)
			respondError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера при склейке")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
	log.Printf("[PDFHandler:Merge] Склейка успешна: '%s'", result.MergedFile)
}

// Download обрабатывает GET запрос на скачивание результата склейки.
func (h *PDFHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	log.Printf("[PDFHandler:Download] Запрос на скачивание '%s'", key)

	rc, err := h.downloads.Fetch(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidKey):
			log.Printf("[PDFHandler:Download] Отклонён некорректный ключ '%s'", key)
			respondError(w, http.StatusBadRequest, services.ErrInvalidKey.Error())
		case errors.Is(err, services.ErrResultNotFound):
			respondError(w, http.StatusNotFound, services.ErrResultNotFound.Error())
		default:
			log.Printf("[PDFHandler:Download] Внутренняя ошибка при скачивании '%s': %v", key, err)
			respondError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера при скачивании")
		}
		return
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			log.Printf("[PDFHandler:Download] Ошибка закрытия файла '%s': %v", key, closeErr)
		}
	}()

	// Результат одноразовый: сразу планируем его отложенное удаление,
	// задержка даёт клиенту время дочитать поток.
	h.scheduler.ScheduleDeletion(key)

	w.Header().Set("Content-Disposition", `attachment; filename="merged_document.pdf"`)
	w.Header().Set("Content-Type", "application/pdf")
	if _, err = io.Copy(w, rc); err != nil {
		log.Printf("[PDFHandler:Download] Ошибка отправки файла '%s': %v", key, err)
		return
	}

	log.Printf("[PDFHandler:Download] Файл '%s' успешно отправлен", key)
}

// isValidationError сообщает, вызвана ли ошибка данными клиента.
func isValidationError(err error) bool {
	return errors.Is(err, services.ErrTooFewFiles) ||
		errors.Is(err, services.ErrTooManyFiles) ||
		errors.Is(err, services.ErrEmptyFile) ||
		errors.Is(err, services.ErrFileTooLarge) ||
		errors.Is(err, services.ErrUnsupportedExtension) ||
		errors.Is(err, services.ErrCorruptPdf)
}

// respondJSON кодирует payload в тело ответа.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[PDFHandler] Ошибка кодирования ответа: %v", err)
	}
}

// respondError отправляет ошибку в едином JSON-формате.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, models.ErrorResponse{Error: msg})
}
