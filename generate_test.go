package docxtemplar_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docxtemplar"
	"github.com/nikitaxru/docxtemplar/docx"
)

// GenerateSuite — сквозные сценарии: книга excelize + шаблон docx → результат.
type GenerateSuite struct {
	suite.Suite
	workbook []byte
}

func TestGenerateSuite(t *testing.T) {
	suite.Run(t, new(GenerateSuite))
}

func (s *GenerateSuite) SetupTest() {
	f := excelize.NewFile()
	_, err := f.NewSheet("Datos")
	s.Require().NoError(err)

	_ = f.SetCellValue("Datos", "A1", 12.5)
	_ = f.SetCellValue("Datos", "B1", "Acme & Cía")
	// диапазон A3:C4 — читается только строка 3
	_ = f.SetCellValue("Datos", "A3", 5)
	_ = f.SetCellValue("Datos", "B3", 10)
	_ = f.SetCellValue("Datos", "C3", 15)
	_ = f.SetCellValue("Datos", "A4", 100)
	_ = f.SetCellValue("Datos", "B4", 200)
	_ = f.SetCellValue("Datos", "C4", 300)

	buf, err := f.WriteToBuffer()
	s.Require().NoError(err, "save workbook")
	s.workbook = buf.Bytes()
	s.Require().NoError(f.Close())
}

func (s *GenerateSuite) template(body string) []byte {
	data, err := docx.NewPackage(body)
	s.Require().NoError(err, "build template")
	return data
}

func (s *GenerateSuite) generate(body string, style docxtemplar.StylePolicy) (*docx.Document, docxtemplar.Report) {
	out, report, err := docxtemplar.Generate(s.workbook, s.template(body), docxtemplar.Options{Style: style})
	s.Require().NoError(err, "generate")
	doc, err := docx.Open(out)
	s.Require().NoError(err, "open result")
	return doc, report
}

// TestSingleCell — число с запятой и одним знаком.
func (s *GenerateSuite) TestSingleCell() {
	doc, report := s.generate(`<w:p><w:r><w:t>Total: {{Datos!A1}}</w:t></w:r></w:p>`, docxtemplar.StylePreserve)

	s.Equal("Total: 12,5", doc.BodyParagraphs()[0].Text())
	s.Equal(docxtemplar.Report{Paragraphs: 1, Rewritten: 1}, report)
}

// TestRangeInTable — диапазон в ячейке таблицы, вторая строка игнорируется.
func (s *GenerateSuite) TestRangeInTable() {
	doc, _ := s.generate(`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>{{Datos!A3:C4}}</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`, docxtemplar.StylePreserve)

	s.Equal("5,0, 10,0, 15,0", doc.TableParagraphs()[0].Text())
}

// TestMissingSheet — ошибка ссылки не ломает генерацию.
func (s *GenerateSuite) TestMissingSheet() {
	doc, report := s.generate(`<w:p><w:r><w:t>Valor: {{Faltante!A1}}.</w:t></w:r></w:p>`, docxtemplar.StylePreserve)

	s.Equal("Valor: .", doc.BodyParagraphs()[0].Text())
	s.Equal(1, report.Rewritten)
}

// TestTokenSplitAcrossRuns — Word часто режет плейсхолдер на несколько run.
func (s *GenerateSuite) TestTokenSplitAcrossRuns() {
	doc, _ := s.generate(`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Cliente: {{Da</w:t></w:r><w:r><w:t>tos!B</w:t></w:r><w:r><w:t>1}}</w:t></w:r></w:p>`, docxtemplar.StylePreserve)
	p := doc.BodyParagraphs()[0]

	s.Equal([]string{"Cliente: Acme & Cía", "", ""}, p.RunTexts())
	s.Require().Len(p.Runs, 3)
	s.Require().NotNil(p.Runs[0].Format.Bold)
	s.False(*p.Runs[0].Format.Bold)
}

// TestMinimalStyleKeepsBold — политика minimal меняет только текст.
func (s *GenerateSuite) TestMinimalStyleKeepsBold() {
	doc, _ := s.generate(`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>{{Datos!A1}}</w:t></w:r></w:p>`, docxtemplar.StyleMinimal)
	run := doc.BodyParagraphs()[0].Runs[0]

	s.Equal("12,5", run.Text)
	s.Require().NotNil(run.Format.Bold)
	s.True(*run.Format.Bold)
}

// TestStructurePreserved — количество абзацев, таблиц, строк и ячеек не меняется.
func (s *GenerateSuite) TestStructurePreserved() {
	body := `<w:p><w:r><w:t>Encabezado</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>{{Datos!A1}}</w:t></w:r></w:p>` +
		`<w:tbl>` +
		`<w:tr><w:tc><w:p><w:r><w:t>{{Datos!B1}}</w:t></w:r></w:p></w:tc><w:tc><w:p/></w:tc></w:tr>` +
		`<w:tr><w:tc><w:p><w:r><w:t>fijo</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>{{cliente}}</w:t></w:r></w:p></w:tc></w:tr>` +
		`</w:tbl>`
	before, err := docx.Open(s.template(body))
	s.Require().NoError(err)

	doc, report := s.generate(body, docxtemplar.StylePreserve)

	s.Equal(before.Stats(), doc.Stats())
	s.Equal(docxtemplar.Report{Paragraphs: 6, Rewritten: 3}, report)
	s.Equal("Encabezado", doc.BodyParagraphs()[0].Text())
	s.Equal("fijo", doc.TableParagraphs()[2].Text())
	s.Equal("", doc.TableParagraphs()[3].Text())
}

// TestNoTokensUnchanged — без плейсхолдеров основная часть не меняется.
func (s *GenerateSuite) TestNoTokensUnchanged() {
	body := `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Solo texto</w:t></w:r></w:p>`
	tmpl := s.template(body)
	out, report, err := docxtemplar.Generate(s.workbook, tmpl, docxtemplar.DefaultOptions())
	s.Require().NoError(err)
	s.Equal(0, report.Rewritten)

	before, err := docx.Open(tmpl)
	s.Require().NoError(err)
	after, err := docx.Open(out)
	s.Require().NoError(err)
	s.Equal(before.XML(), after.XML())
}

// TestCorruptInputs — нечитаемые файлы дают ошибку, а не частичный документ.
func (s *GenerateSuite) TestCorruptInputs() {
	out, _, err := docxtemplar.Generate([]byte("no es excel"), s.template(`<w:p/>`), docxtemplar.DefaultOptions())
	s.Error(err)
	s.Nil(out)

	out, _, err = docxtemplar.Generate(s.workbook, []byte("no es word"), docxtemplar.DefaultOptions())
	s.Error(err)
	s.Nil(out)
	s.True(errors.Is(err, docx.ErrNotPackage))
}

// TestGenerateFiles — файловый режим CLI.
func (s *GenerateSuite) TestGenerateFiles() {
	tmpDir := s.T().TempDir()
	wbPath := filepath.Join(tmpDir, "datos.xlsx")
	tplPath := filepath.Join(tmpDir, "informe.docx")
	outPath := filepath.Join(tmpDir, docxtemplar.GeneratedName("informe.docx"))

	s.Require().NoError(os.WriteFile(wbPath, s.workbook, 0o644))
	s.Require().NoError(os.WriteFile(tplPath, s.template(`<w:p><w:r><w:t>Total: {{Datos!A1}}</w:t></w:r></w:p>`), 0o644))

	s.Require().NoError(docxtemplar.GenerateFiles(wbPath, tplPath, outPath, docxtemplar.DefaultOptions()))

	data, err := os.ReadFile(outPath)
	s.Require().NoError(err)
	doc, err := docx.Open(data)
	s.Require().NoError(err)
	s.Equal("Total: 12,5", doc.BodyParagraphs()[0].Text())
}

// TestGenerateFilesRejectsExtension — имя проверяется до чтения файлов.
func (s *GenerateSuite) TestGenerateFilesRejectsExtension() {
	err := docxtemplar.GenerateFiles("datos.csv", "informe.docx", "out.docx", docxtemplar.DefaultOptions())

	var verr *docxtemplar.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Equal("datos.csv", verr.Filename)
	s.True(errors.Is(err, docxtemplar.ErrWorkbookExtension))
}
