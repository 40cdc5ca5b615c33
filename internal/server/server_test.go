package server

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docxtemplar"
	"github.com/nikitaxru/docxtemplar/docx"
)

type ServerSuite struct {
	suite.Suite
	handler  http.Handler
	workbook []byte
	template []byte
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupSuite() {
	srv, err := New(DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.handler = srv.Handler()

	f := excelize.NewFile()
	_, err = f.NewSheet("Datos")
	s.Require().NoError(err)
	_ = f.SetCellValue("Datos", "A1", 12.5)
	buf, err := f.WriteToBuffer()
	s.Require().NoError(err)
	s.workbook = buf.Bytes()

	s.template, err = docx.NewPackage(`<w:p><w:r><w:t>Total: {{Datos!A1}}</w:t></w:r></w:p>`)
	s.Require().NoError(err)
}

type upload struct {
	field, name string
	data        []byte
}

func (s *ServerSuite) post(files ...upload) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range files {
		w, err := mw.CreateFormFile(u.field, u.name)
		s.Require().NoError(err)
		_, err = w.Write(u.data)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/procesar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) TestIndex() {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `name="archivo_excel"`)
	s.Contains(rec.Body.String(), `name="archivo_word"`)
}

func (s *ServerSuite) TestStatic() {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerSuite) TestProcessSuccess() {
	rec := s.post(
		upload{fieldWorkbook, "datos.xlsx", s.workbook},
		upload{fieldDocument, "informe.docx", s.template},
	)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(docxtemplar.MediaTypeDocx, rec.Header().Get("Content-Type"))
	s.Equal(`attachment; filename="informe%20%28generado%29.docx"`, rec.Header().Get("Content-Disposition"))
	s.Equal("Content-Disposition", rec.Header().Get("Access-Control-Expose-Headers"))
	s.Equal(strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))

	doc, err := docx.Open(rec.Body.Bytes())
	s.Require().NoError(err)
	s.Equal("Total: 12,5", doc.BodyParagraphs()[0].Text())
}

func (s *ServerSuite) TestProcessMissingSheetStillSucceeds() {
	tmpl, err := docx.NewPackage(`<w:p><w:r><w:t>{{Faltante!A1}}</w:t></w:r></w:p>`)
	s.Require().NoError(err)

	rec := s.post(
		upload{fieldWorkbook, "datos.xlsm", s.workbook},
		upload{fieldDocument, "informe.docx", tmpl},
	)

	s.Require().Equal(http.StatusOK, rec.Code)
	doc, err := docx.Open(rec.Body.Bytes())
	s.Require().NoError(err)
	s.Equal("", doc.BodyParagraphs()[0].Text())
}

func (s *ServerSuite) TestProcessRejectsWorkbookExtension() {
	// содержимое не важно: имя проверяется до разбора
	rec := s.post(
		upload{fieldWorkbook, "data.csv", []byte("a,b,c")},
		upload{fieldDocument, "informe.docx", s.template},
	)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "El archivo Excel debe ser .xlsx o .xlsm")
}

func (s *ServerSuite) TestProcessRejectsDocumentExtension() {
	rec := s.post(
		upload{fieldWorkbook, "datos.xlsx", s.workbook},
		upload{fieldDocument, "informe.doc", []byte("x")},
	)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "El archivo Word debe ser .docx")
}

func (s *ServerSuite) TestProcessMissingField() {
	rec := s.post(upload{fieldWorkbook, "datos.xlsx", s.workbook})

	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(rec.Body.String(), fieldDocument)
}

func (s *ServerSuite) TestProcessCorruptWorkbook() {
	rec := s.post(
		upload{fieldWorkbook, "datos.xlsx", []byte("no es un zip")},
		upload{fieldDocument, "informe.docx", s.template},
	)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Contains(rec.Body.String(), "Error interno del servidor")
	s.Empty(rec.Header().Get("Content-Disposition"))
}

func (s *ServerSuite) TestCORS() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func (s *ServerSuite) TestUnknownRoute() {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nada", nil))

	s.Equal(http.StatusNotFound, rec.Code)
}
