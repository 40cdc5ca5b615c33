package docxtemplar

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikitaxru/docxtemplar/docx"
)

// Options настраивает генерацию.
type Options struct {
	Style  StylePolicy
	Logger *slog.Logger
}

// DefaultOptions — сохранение стиля без жирного, логгер по умолчанию.
func DefaultOptions() Options {
	return Options{Style: StylePreserve}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// ParseStylePolicy разбирает значение флага --style.
func ParseStylePolicy(s string) (StylePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve":
		return StylePreserve, nil
	case "minimal":
		return StyleMinimal, nil
	}
	return StylePreserve, fmt.Errorf("неизвестная политика стиля %q (preserve или minimal)", s)
}

// Generate заполняет шаблон Word значениями из книги Excel.
// Книга и документ живут только в рамках вызова. Ошибки ссылок на ячейки
// не прерывают генерацию; ошибка возвращается только если файлы не читаются
// или результат не сохраняется.
func Generate(workbookData, documentData []byte, opts Options) ([]byte, Report, error) {
	log := opts.logger()

	log.Debug("🔄 Загрузка книги Excel...", "bytes", len(workbookData))
	wb, err := OpenWorkbook(workbookData)
	if err != nil {
		log.Error("❌ Ошибка загрузки книги", "error", err)
		return nil, Report{}, fmt.Errorf("загрузка книги: %w", err)
	}
	defer wb.Close()
	log.Debug("✅ Книга загружена", "sheets", wb.Sheets())

	log.Debug("🔄 Загрузка шаблона Word...", "bytes", len(documentData))
	doc, err := docx.Open(documentData)
	if err != nil {
		log.Error("❌ Ошибка загрузки шаблона", "error", err)
		return nil, Report{}, fmt.Errorf("загрузка шаблона: %w", err)
	}

	report := ProcessDocument(doc, NewResolver(wb, log), opts.Style)
	log.Debug("✅ Подстановка завершена", "paragraphs", report.Paragraphs, "rewritten", report.Rewritten)

	out, err := doc.Bytes()
	if err != nil {
		log.Error("❌ Ошибка сохранения документа", "error", err)
		return nil, Report{}, fmt.Errorf("сохранение документа: %w", err)
	}
	return out, report, nil
}
