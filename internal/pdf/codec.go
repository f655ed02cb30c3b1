// Package pdf инкапсулирует работу с PDF-документами.
// Разбор структуры, подсчёт страниц, склейка и пересжатие потоков
// содержимого делегируются библиотеке pdfcpu и считаются корректными
// примитивами.
package pdf

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Codec определяет интерфейс PDF-кодека.
type Codec interface {
	// PageCount валидирует документ и возвращает число его страниц.
	// Ошибка означает, что документ повреждён или не является PDF.
	PageCount(rs io.ReadSeeker) (int, error)
	// Merge записывает в w один документ, составленный из страниц всех
	// входов строго в порядке их следования в inputs.
	Merge(inputs []io.ReadSeeker, w io.Writer) error
	// Compress без потерь пересжимает документ: число страниц и
	// содержимое не меняются, меняется только сериализованный размер.
	Compress(rs io.ReadSeeker, w io.Writer) error
}

type pdfcpuCodec struct{}

var _ Codec = (*pdfcpuCodec)(nil)

// NewCodec создает кодек на базе pdfcpu.
func NewCodec() Codec {
	return &pdfcpuCodec{}
}

// newConf возвращает свежую конфигурацию pdfcpu.
// Конфигурация мутируется внутри вызовов api, общий экземпляр
// между конкурентными запросами использовать нельзя.
func newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func (c *pdfcpuCodec) PageCount(rs io.ReadSeeker) (int, error) {
	if err := api.Validate(rs, newConf()); err != nil {
		return 0, fmt.Errorf("документ не прошёл валидацию: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("ошибка перемотки документа: %w", err)
	}
	count, err := api.PageCount(rs, newConf())
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта страниц: %w", err)
	}
	return count, nil
}

func (c *pdfcpuCodec) Merge(inputs []io.ReadSeeker, w io.Writer) error {
	if err := api.MergeRaw(inputs, w, false, newConf()); err != nil {
		return fmt.Errorf("ошибка склейки документов: %w", err)
	}
	return nil
}

func (c *pdfcpuCodec) Compress(rs io.ReadSeeker, w io.Writer) error {
	if err := api.Optimize(rs, w, newConf()); err != nil {
		return fmt.Errorf("ошибка сжатия документа: %w", err)
	}
	return nil
}
