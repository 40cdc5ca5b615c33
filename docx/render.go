package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

type edit struct {
	start, end int
	data       []byte
}

// Bytes собирает пакет заново. Все части, кроме основной, копируются без перепаковки.
func (d *Document) Bytes() ([]byte, error) {
	main := d.rewrite()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range d.zr.File {
		if f.Name != d.mainPart {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("docx: copy %s: %w", f.Name, err)
			}
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return nil, fmt.Errorf("docx: write %s: %w", f.Name, err)
		}
		if _, err := w.Write(main); err != nil {
			return nil, fmt.Errorf("docx: write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx: close package: %w", err)
	}
	return buf.Bytes(), nil
}

// XML — основная часть с применёнными правками.
func (d *Document) XML() []byte { return d.rewrite() }

func (d *Document) rewrite() []byte {
	var edits []edit
	for _, p := range d.Paragraphs() {
		for _, r := range p.Runs {
			if r.rewrite {
				edits = append(edits, edit{start: r.start, end: r.end, data: d.renderRun(r)})
			}
		}
	}
	if len(edits) == 0 {
		return d.xml
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var out bytes.Buffer
	out.Grow(len(d.xml))
	last := 0
	for _, e := range edits {
		out.Write(d.xml[last:e.start])
		out.Write(e.data)
		last = e.end
	}
	out.Write(d.xml[last:])
	return out.Bytes()
}

// renderRun пересобирает run: исходный открывающий тег, свойства, нетекстовые
// потомки по порядку и новый текст на месте первого текстового потомка.
func (d *Document) renderRun(r *Run) []byte {
	var b bytes.Buffer
	b.Write(openTag(d.xml[r.start:r.tagEnd], r.selfClosing))
	switch {
	case r.props != nil && r.clearBold:
		b.Write(d.boldOffProps(r.props))
	case r.props != nil:
		b.Write(d.xml[r.props.start:r.props.end])
	case r.clearBold:
		b.WriteString("<" + qname(r.prefix, "rPr") + ">")
		b.WriteString(boldOff(r.prefix))
		b.WriteString("</" + qname(r.prefix, "rPr") + ">")
	}
	written := false
	for _, c := range r.children {
		if c.text {
			if !written {
				writeText(&b, r.prefix, r.Text)
				written = true
			}
			continue
		}
		b.Write(d.xml[c.start:c.end])
	}
	if !written {
		writeText(&b, r.prefix, r.Text)
	}
	b.WriteString("</" + qname(r.prefix, "r") + ">")
	return b.Bytes()
}

// boldOffProps убирает w:b и вставляет w:b w:val="0" после rStyle/rFonts
// (порядок элементов CT_RPr).
func (d *Document) boldOffProps(p *element) []byte {
	var b bytes.Buffer
	b.Write(openTag(d.xml[p.start:p.tagEnd], p.selfClosing))
	inserted := false
	for _, c := range p.children {
		if c.word && c.local == "b" {
			continue
		}
		if !inserted && !(c.word && (c.local == "rStyle" || c.local == "rFonts")) {
			b.WriteString(boldOff(p.prefix))
			inserted = true
		}
		b.Write(d.xml[c.start:c.end])
	}
	if !inserted {
		b.WriteString(boldOff(p.prefix))
	}
	b.WriteString("</" + qname(p.prefix, "rPr") + ">")
	return b.Bytes()
}

func boldOff(prefix string) string {
	return "<" + qname(prefix, "b") + " " + qname(prefix, "val") + `="0"/>`
}

func writeText(b *bytes.Buffer, prefix, text string) {
	var chunk strings.Builder
	flush := func() {
		if chunk.Len() == 0 {
			return
		}
		b.WriteString("<" + qname(prefix, "t") + ` xml:space="preserve">`)
		_ = xml.EscapeText(b, []byte(chunk.String()))
		b.WriteString("</" + qname(prefix, "t") + ">")
		chunk.Reset()
	}
	for _, r := range text {
		switch r {
		case '\t':
			flush()
			b.WriteString("<" + qname(prefix, "tab") + "/>")
		case '\n', '\r':
			flush()
			b.WriteString("<" + qname(prefix, "br") + "/>")
		default:
			chunk.WriteRune(r)
		}
	}
	flush()
}

func openTag(raw []byte, selfClosing bool) []byte {
	if !selfClosing {
		return raw
	}
	tag := bytes.TrimRight(bytes.TrimSuffix(raw, []byte("/>")), " \t\r\n")
	return append(append([]byte{}, tag...), '>')
}

func qname(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
