package models

// StagedFile описывает один принятый файл пакета загрузки.
// TempName — ключ staged-артефакта в хранилище, по нему файл
// указывается в последующем запросе на склейку.
type StagedFile struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	TempName     string `json:"temp_name"`
	Size         int64  `json:"size"`
}

// UploadResponse представляет ответ на загрузку пакета файлов.
type UploadResponse struct {
	Files []StagedFile `json:"files"`
}

// MergeRequest представляет тело запроса на склейку.
// Порядок ключей в FileOrder задаёт порядок страниц результата.
type MergeRequest struct {
	FileOrder []string `json:"file_order"`
	Compress  bool     `json:"compress"`
}

// MergeResult представляет итог успешной склейки.
type MergeResult struct {
	MergedFile string `json:"merged_file"`
	FileSize   int64  `json:"file_size"`
	PageCount  int    `json:"page_count"`
	Compressed bool   `json:"compressed"`
}

// ErrorResponse представляет тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}
