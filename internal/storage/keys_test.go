package storage_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maynagashev/pdfmerge/internal/storage"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Обычное имя", input: "report.pdf", expected: "report.pdf"},
		{name: "Имя с путём Unix", input: "../../etc/passwd", expected: "passwd"},
		{name: "Имя с путём Windows", input: `C:\Users\doc.pdf`, expected: "doc.pdf"},
		{name: "Пробелы и скобки", input: "annual report (final).pdf", expected: "annual_report__final_.pdf"},
		{name: "Управляющие символы", input: "doc\x00\x1f.pdf", expected: "doc__.pdf"},
		{name: "Скрытый файл", input: ".hidden.pdf", expected: "hidden.pdf"},
		{name: "Пустое имя", input: "", expected: "file"},
		{name: "Только мусор", input: "...", expected: "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, storage.SanitizeFilename(tt.input))
		})
	}
}

func TestNewKey(t *testing.T) {
	t.Run("Staged-ключ содержит префикс и очищенное имя", func(t *testing.T) {
		key := storage.NewKey(storage.CategoryStaged, "my doc.pdf")
		assert.True(t, strings.HasPrefix(key, "temp_"))
		assert.True(t, strings.HasSuffix(key, "_my_doc.pdf"))
		assert.True(t, storage.IsStagedKey(key))
		assert.False(t, storage.IsResultKey(key))
	})

	t.Run("Result-ключ содержит префикс и суффикс", func(t *testing.T) {
		key := storage.NewKey(storage.CategoryResult, "")
		assert.True(t, strings.HasPrefix(key, "merged_"))
		assert.True(t, strings.HasSuffix(key, ".pdf"))
		assert.True(t, storage.IsResultKey(key))
		assert.False(t, storage.IsStagedKey(key))
	})

	t.Run("Ключи уникальны", func(t *testing.T) {
		a := storage.NewKey(storage.CategoryStaged, "same.pdf")
		b := storage.NewKey(storage.CategoryStaged, "same.pdf")
		assert.NotEqual(t, a, b)
	})
}

func TestIsResultKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected bool
	}{
		{name: "Корректный result-ключ", key: "merged_123e4567.pdf", expected: true},
		{name: "Staged-ключ", key: "temp_123e4567_doc.pdf", expected: false},
		{name: "Без суффикса", key: "merged_123e4567", expected: false},
		{name: "Чужой файл с похожим именем", key: "other_merged_1.pdf", expected: false},
		{name: "Попытка выхода из каталога", key: "merged_../../etc/passwd.pdf", expected: false},
		{name: "Обратный слэш", key: `merged_..\secret.pdf`, expected: false},
		{name: "Пустой ключ", key: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, storage.IsResultKey(tt.key))
		})
	}
}
