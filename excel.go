package docxtemplar

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FormatValue приводит значение ячейки к строке для вставки в документ.
// Любое число выводится с одним знаком после запятой и запятой как разделителем:
// 3.14 → "3,1", 7 → "7,0". Группировка разрядов не добавляется.
func FormatValue(v Value) string {
	switch v.Kind {
	case KindEmpty:
		return ""
	case KindNumber:
		return strings.Replace(strconv.FormatFloat(v.Num, 'f', 1, 64), ".", ",", 1)
	case KindBool:
		// булево значение не число: TRUE/FALSE, а не "1,0"/"0,0"
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindTime:
		if v.TimeOnly {
			return v.Time.Format("15:04:05")
		}
		return v.Time.Format("2006-01-02 15:04:05")
	default:
		return v.Text
	}
}

func joinValues(vals []string) string { return strings.Join(vals, ", ") }

// GenerateFiles — файловый вариант Generate для CLI.
func GenerateFiles(workbookPath, documentPath, destPath string, opts Options) error {
	log := opts.logger()
	log.Info("📊 Начинаем генерацию документа...")
	log.Info("📁 Книга Excel", "path", workbookPath)
	log.Info("📁 Шаблон Word", "path", documentPath)
	log.Info("📄 Выходной файл", "path", destPath)

	startTime := time.Now()

	if err := ValidateWorkbookName(workbookPath); err != nil {
		return err
	}
	if err := ValidateDocumentName(documentPath); err != nil {
		return err
	}

	workbookData, err := os.ReadFile(workbookPath)
	if err != nil {
		log.Error("❌ Ошибка чтения книги", "error", err)
		return fmt.Errorf("чтение книги: %w", err)
	}
	documentData, err := os.ReadFile(documentPath)
	if err != nil {
		log.Error("❌ Ошибка чтения шаблона", "error", err)
		return fmt.Errorf("чтение шаблона: %w", err)
	}

	out, report, err := Generate(workbookData, documentData, opts)
	if err != nil {
		return err
	}

	log.Info("💾 Сохранение файла...")
	if err := os.WriteFile(destPath, out, 0o644); err != nil {
		log.Error("❌ Ошибка сохранения", "error", err)
		return fmt.Errorf("сохранение %s: %w", destPath, err)
	}

	log.Info("✅ Документ создан",
		"duration", time.Since(startTime),
		"paragraphs", report.Paragraphs,
		"rewritten", report.Rewritten,
		"path", destPath)
	return nil
}
