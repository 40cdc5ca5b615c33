package docxtemplar

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MediaTypeDocx — MIME-тип результата.
const MediaTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ValidateWorkbookName проверяет только суффикс имени, содержимое не смотрим.
func ValidateWorkbookName(name string) error {
	if strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm") {
		return nil
	}
	return &ValidationError{Filename: name, Err: ErrWorkbookExtension}
}

func ValidateDocumentName(name string) error {
	if strings.HasSuffix(name, ".docx") {
		return nil
	}
	return &ValidationError{Filename: name, Err: ErrDocumentExtension}
}

// GeneratedName строит имя результата: "<имя без расширения> (generado).docx".
// Браузеры на macOS присылают имена в NFD, поэтому приводим к NFC.
func GeneratedName(documentName string) string {
	base := norm.NFC.String(documentName)
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	return base + " (generado).docx"
}

// ContentDisposition возвращает значение заголовка для скачивания файла.
func ContentDisposition(name string) string {
	return `attachment; filename="` + percentEncode(name) + `"`
}

// percentEncode кодирует всё, кроме A-Z a-z 0-9 _ . - ~ и '/'.
func percentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '_', c == '.', c == '-', c == '~', c == '/':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}
