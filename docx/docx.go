// Package docx читает и переписывает основную часть пакета WordprocessingML.
//
// Моделируется только нужное генератору: абзацы тела, таблицы верхнего уровня,
// их ячейки и прямые run каждого абзаца. Всё остальное остаётся сырыми байтами,
// правки вклеиваются в исходный XML, поэтому нетронутый абзац совпадает
// с оригиналом побайтно.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nsMain       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsMainStrict = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

var (
	// ErrNotPackage — буфер не является zip-архивом.
	ErrNotPackage = errors.New("docx: not a zip package")
	// ErrNoMainPart — в пакете нет основной части документа.
	ErrNoMainPart = errors.New("docx: main document part not found")
)

// Location — где находится абзац.
type Location int

const (
	LocationBody Location = iota
	LocationTable
)

// Format — часть свойств run, которые нас интересуют.
// nil означает «наследуется от стиля».
type Format struct {
	Bold      *bool
	Italic    *bool
	Underline string
	Font      string
	// Size в полупунктах, как в w:sz.
	Size  int
	Color string
}

// Run — прямой потомок w:r абзаца.
type Run struct {
	Text   string
	Format Format

	prefix      string
	start, end  int
	tagEnd      int
	selfClosing bool
	props       *element
	children    []*element

	rewrite   bool
	clearBold bool
}

// HasText — есть ли в run текстовые элементы.
func (r *Run) HasText() bool {
	for _, c := range r.children {
		if c.text {
			return true
		}
	}
	return false
}

// Paragraph — w:p в теле документа или в ячейке таблицы.
type Paragraph struct {
	Runs     []*Run
	Location Location
}

func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func (p *Paragraph) RunTexts() []string {
	out := make([]string, len(p.Runs))
	for i, r := range p.Runs {
		out[i] = r.Text
	}
	return out
}

// ReplaceText кладёт текст в первую run и очищает остальные, сами run остаются.
// С clearBold первая run получает явное w:b w:val="0". Абзац без run не меняется.
func (p *Paragraph) ReplaceText(text string, clearBold bool) {
	if len(p.Runs) == 0 {
		return
	}
	for i, r := range p.Runs {
		if i == 0 {
			r.Text = text
			r.rewrite = true
			r.clearBold = clearBold
			if clearBold {
				off := false
				r.Format.Bold = &off
			}
			continue
		}
		if r.Text != "" || r.HasText() {
			r.Text = ""
			r.rewrite = true
		}
	}
}

type Cell struct {
	Paragraphs []*Paragraph
}

type Row struct {
	Cells []*Cell
}

// Table — w:tbl прямо в теле. Вложенные в ячейки таблицы остаются сырым XML.
type Table struct {
	Rows []*Row
}

type Stats struct {
	Paragraphs int
	Tables     int
	Rows       int
	Cells      int
}

// Document — открытый пакет .docx.
type Document struct {
	Tables []*Table

	zr       *zip.Reader
	mainPart string
	xml      []byte
	body     []*Paragraph
}

// Open разбирает .docx из памяти.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPackage, err)
	}
	d := &Document{zr: zr}
	d.mainPart = findMainPart(zr)
	f := d.file(d.mainPart)
	if f == nil {
		return nil, ErrNoMainPart
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("docx: open %s: %w", d.mainPart, err)
	}
	d.xml, err = io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("docx: read %s: %w", d.mainPart, err)
	}
	if err := d.scan(); err != nil {
		return nil, fmt.Errorf("docx: parse %s: %w", d.mainPart, err)
	}
	return d, nil
}

func (d *Document) MainPart() string { return d.mainPart }

// BodyParagraphs — абзацы, лежащие прямо в w:body.
func (d *Document) BodyParagraphs() []*Paragraph { return d.body }

// TableParagraphs — абзацы всех ячеек всех строк таблиц верхнего уровня по порядку.
func (d *Document) TableParagraphs() []*Paragraph {
	var out []*Paragraph
	for _, t := range d.Tables {
		for _, r := range t.Rows {
			for _, c := range r.Cells {
				out = append(out, c.Paragraphs...)
			}
		}
	}
	return out
}

// Paragraphs — сначала абзацы тела, затем табличные.
func (d *Document) Paragraphs() []*Paragraph {
	return append(append([]*Paragraph{}, d.body...), d.TableParagraphs()...)
}

func (d *Document) Stats() Stats {
	s := Stats{Paragraphs: len(d.body), Tables: len(d.Tables)}
	for _, t := range d.Tables {
		s.Rows += len(t.Rows)
		for _, r := range t.Rows {
			s.Cells += len(r.Cells)
			for _, c := range r.Cells {
				s.Paragraphs += len(c.Paragraphs)
			}
		}
	}
	return s
}

func (d *Document) file(name string) *zip.File {
	for _, f := range d.zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

type relationships struct {
	Items []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// findMainPart ищет связь officeDocument в _rels/.rels.
func findMainPart(zr *zip.Reader) string {
	const fallback = "word/document.xml"
	for _, f := range zr.File {
		if f.Name != "_rels/.rels" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fallback
		}
		var rels relationships
		err = xml.NewDecoder(rc).Decode(&rels)
		rc.Close()
		if err != nil {
			return fallback
		}
		for _, rel := range rels.Items {
			if strings.HasSuffix(rel.Type, "/officeDocument") {
				return strings.TrimPrefix(rel.Target, "/")
			}
		}
	}
	return fallback
}
