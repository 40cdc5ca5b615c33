package docxtemplar

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkbookExtension — книга не .xlsx/.xlsm.
	ErrWorkbookExtension = errors.New("El archivo Excel debe ser .xlsx o .xlsm")
	// ErrDocumentExtension — шаблон не .docx.
	ErrDocumentExtension = errors.New("El archivo Word debe ser .docx")
)

// ValidationError — входные файлы отклонены до разбора.
type ValidationError struct {
	Filename string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
