// Package pdftest собирает минимальные валидные PDF-документы для тестов.
// Фикстуры генерируются программно, чтобы не хранить бинарные файлы в репозитории.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// MinimalPDF возвращает корректный PDF 1.4 с указанным числом пустых страниц.
func MinimalPDF(pageCount int) []byte {
	if pageCount < 1 {
		pageCount = 1
	}

	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+i))
	}
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pageCount))

	for i := 0; i < pageCount; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", 3+i))
	}

	// Таблица xref: записи ровно по 20 байт, смещения от начала файла.
	xrefOffset := buf.Len()
	size := pageCount + 3
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xrefOffset)

	return buf.Bytes()
}

// Corrupt возвращает байты, заведомо не являющиеся PDF-документом.
func Corrupt() []byte {
	return []byte("этот файл только притворяется PDF-документом")
}
