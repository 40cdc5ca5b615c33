package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/nikitaxru/docxtemplar"
)

const (
	fieldWorkbook = "archivo_excel"
	fieldDocument = "archivo_word"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, "index.html", nil); err != nil {
		s.logger.Error("❌ Ошибка рендера страницы", "error", err)
	}
}

// handleProcess принимает книгу и шаблон и отдаёт сгенерированный документ.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("📊 Начинаем обработку файлов...")

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.renderError(w, http.StatusRequestEntityTooLarge, "Los archivos superan el tamaño máximo permitido")
			return
		}
		s.renderError(w, http.StatusBadRequest, "Formulario inválido: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	excelFile, excelHeader, err := r.FormFile(fieldWorkbook)
	if err != nil {
		s.renderError(w, http.StatusUnprocessableEntity, "Falta el campo "+fieldWorkbook)
		return
	}
	defer excelFile.Close()
	wordFile, wordHeader, err := r.FormFile(fieldDocument)
	if err != nil {
		s.renderError(w, http.StatusUnprocessableEntity, "Falta el campo "+fieldDocument)
		return
	}
	defer wordFile.Close()

	// проверка имён до любого разбора содержимого
	if err := docxtemplar.ValidateWorkbookName(excelHeader.Filename); err != nil {
		s.logger.Warn("⚠️ Файл отклонён", "error", err)
		s.renderError(w, http.StatusBadRequest, errors.Unwrap(err).Error())
		return
	}
	if err := docxtemplar.ValidateDocumentName(wordHeader.Filename); err != nil {
		s.logger.Warn("⚠️ Файл отклонён", "error", err)
		s.renderError(w, http.StatusBadRequest, errors.Unwrap(err).Error())
		return
	}

	excelData, err := readUpload(excelFile)
	if err != nil {
		s.fail(w, err)
		return
	}
	wordData, err := readUpload(wordFile)
	if err != nil {
		s.fail(w, err)
		return
	}

	out, report, err := docxtemplar.Generate(excelData, wordData, docxtemplar.Options{
		Style:  s.cfg.Style,
		Logger: s.logger.With("workbook", excelHeader.Filename, "document", wordHeader.Filename),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("✅ Обработка завершена успешно", "paragraphs", report.Paragraphs, "rewritten", report.Rewritten)

	name := docxtemplar.GeneratedName(wordHeader.Filename)
	h := w.Header()
	h.Set("Content-Type", docxtemplar.MediaTypeDocx)
	h.Set("Content-Disposition", docxtemplar.ContentDisposition(name))
	h.Set("Access-Control-Expose-Headers", "Content-Disposition")
	h.Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.logger.Error("❌ Ошибка отправки ответа", "error", err)
	}
}

func readUpload(f multipart.File) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return nil, fmt.Errorf("чтение загрузки: %w", err)
	}
	return buf.Bytes(), nil
}

// fail отдаёт 500: частичный документ клиенту никогда не уходит.
func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Error("❌ Ошибка обработки", "error", err)
	s.renderError(w, http.StatusInternalServerError, "Error interno del servidor: "+err.Error())
}

type errorPage struct {
	StatusCode int
	Detail     string
}

func (s *Server) renderError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, "error.html", errorPage{StatusCode: status, Detail: detail}); err != nil {
		s.logger.Error("❌ Ошибка рендера страницы", "error", err)
	}
}
