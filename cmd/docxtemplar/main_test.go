package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docxtemplar/docx"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("warn", "json", &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger("verbose", "text", io.Discard)
	require.Error(t, err)
	_, err = newLogger("info", "xml", io.Discard)
	require.Error(t, err)
}

func TestSplitDir(t *testing.T) {
	dir, file := splitDir("plantillas/informe.docx")
	require.Equal(t, "plantillas/", dir)
	require.Equal(t, "informe.docx", file)

	dir, file = splitDir("informe.docx")
	require.Equal(t, "", dir)
	require.Equal(t, "informe.docx", file)
}

func TestFillCommand(t *testing.T) {
	tmpDir := t.TempDir()
	wbPath := filepath.Join(tmpDir, "datos.xlsx")
	tplPath := filepath.Join(tmpDir, "informe.docx")

	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 42))
	require.NoError(t, f.SaveAs(wbPath))

	tpl, err := docx.NewPackage(`<w:p><w:r><w:t>Respuesta: {{Sheet1!B2}}</w:t></w:r></w:p>`)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tplPath, tpl, 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"fill", "--excel", wbPath, "--word", tplPath, "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	dest := strings.TrimSpace(out.String())
	require.Equal(t, filepath.Join(tmpDir, "informe (generado).docx"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	doc, err := docx.Open(data)
	require.NoError(t, err)
	require.Equal(t, "Respuesta: 42,0", doc.BodyParagraphs()[0].Text())
}
