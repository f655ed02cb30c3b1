package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/maynagashev/pdfmerge/internal/models"
)

// MaxUploadSize — максимальный суммарный размер тела запроса загрузки.
const MaxUploadSize = 100 << 20 // 100 MiB

// MaxRequestSize отклоняет запросы, чей Content-Length превышает limit,
// ещё до разбора multipart — валидатор пакета такие запросы не видит.
// Тело дополнительно оборачивается в MaxBytesReader как подстраховка от
// клиентов, занижающих Content-Length.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				log.Printf("[MaxRequestSize] Запрос отклонён: Content-Length %d превышает лимит %s",
					r.ContentLength, humanize.IBytes(uint64(limit)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_ = json.NewEncoder(w).Encode(models.ErrorResponse{
					Error: fmt.Sprintf("Суммарный размер загрузки превышает %s", humanize.IBytes(uint64(limit))),
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
