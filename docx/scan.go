package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

// element — сырой фрагмент основной части.
type element struct {
	local       string
	prefix      string
	word        bool
	start, end  int
	tagEnd      int
	selfClosing bool
	// text — потомок run, несущий текст (w:t, w:tab, w:br, ...).
	text     bool
	value    string
	children []*element
}

type frame struct {
	local string
	word  bool

	body  bool
	table *Table
	row   *Row
	cell  *Cell
	para  *Paragraph
	run   *Run
	// propsOf выставляется на кадре w:rPr моделируемой run.
	propsOf *Run
	el      *element
	collect *element
	// nsSaved — привязки префиксов, перекрытые этим элементом.
	nsSaved []nsBinding
}

type nsBinding struct {
	prefix string
	uri    string
	bound  bool
}

// scan проходит основную часть один раз и запоминает смещения run и их потомков.
// RawToken оставляет префиксы как есть, поэтому пространства имён
// сопоставляем сами по xmlns; привязка живёт до конца объявившего её элемента.
func (d *Document) scan() error {
	dec := xml.NewDecoder(bytes.NewReader(d.xml))
	ns := map[string]string{}
	var stack []*frame
	for {
		start := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		end := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			var saved []nsBinding
			for _, a := range t.Attr {
				prefix, ok := "", false
				switch {
				case a.Name.Space == "xmlns":
					prefix, ok = a.Name.Local, true
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					ok = true
				}
				if !ok {
					continue
				}
				prev, bound := ns[prefix]
				saved = append(saved, nsBinding{prefix: prefix, uri: prev, bound: bound})
				ns[prefix] = a.Value
			}
			uri := ns[t.Name.Space]
			f := &frame{local: t.Name.Local, word: uri == nsMain || uri == nsMainStrict, nsSaved: saved}
			var parent *frame
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			d.open(f, parent, t, start, end)
			stack = append(stack, f)
		case xml.EndElement:
			if len(stack) == 0 {
				return fmt.Errorf("unexpected </%s> at offset %d", t.Name.Local, start)
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			d.close(f, end)
			for i := len(f.nsSaved) - 1; i >= 0; i-- {
				b := f.nsSaved[i]
				if b.bound {
					ns[b.prefix] = b.uri
				} else {
					delete(ns, b.prefix)
				}
			}
		case xml.CharData:
			if len(stack) > 0 {
				if el := stack[len(stack)-1].collect; el != nil {
					el.value += string(t)
				}
			}
		}
	}
	if len(stack) != 0 {
		return fmt.Errorf("unclosed <%s>", stack[len(stack)-1].local)
	}
	return nil
}

func (d *Document) open(f, parent *frame, t xml.StartElement, start, end int) {
	if parent == nil {
		return
	}
	selfClosing := bytes.HasSuffix(d.xml[start:end], []byte("/>"))
	newElement := func() *element {
		return &element{
			local:       f.local,
			prefix:      t.Name.Space,
			word:        f.word,
			start:       start,
			end:         end,
			tagEnd:      end,
			selfClosing: selfClosing,
		}
	}

	switch {
	case f.word && f.local == "body" && parent.word && parent.local == "document":
		f.body = true
	case f.word && f.local == "tbl" && parent.body:
		f.table = &Table{}
		d.Tables = append(d.Tables, f.table)
	case f.word && f.local == "tr" && parent.table != nil:
		f.row = &Row{}
		parent.table.Rows = append(parent.table.Rows, f.row)
	case f.word && f.local == "tc" && parent.row != nil:
		f.cell = &Cell{}
		parent.row.Cells = append(parent.row.Cells, f.cell)
	case f.word && f.local == "p" && parent.body:
		f.para = &Paragraph{Location: LocationBody}
		d.body = append(d.body, f.para)
	case f.word && f.local == "p" && parent.cell != nil:
		f.para = &Paragraph{Location: LocationTable}
		parent.cell.Paragraphs = append(parent.cell.Paragraphs, f.para)
	case f.word && f.local == "r" && parent.para != nil:
		f.run = &Run{
			prefix:      t.Name.Space,
			start:       start,
			end:         end,
			tagEnd:      end,
			selfClosing: selfClosing,
		}
		parent.para.Runs = append(parent.para.Runs, f.run)
	case parent.run != nil:
		el := newElement()
		f.el = el
		if f.word && f.local == "rPr" {
			if parent.run.props == nil {
				parent.run.props = el
				f.propsOf = parent.run
			}
			return
		}
		if f.word {
			switch f.local {
			case "t":
				el.text = true
				f.collect = el
			case "tab", "ptab":
				el.text, el.value = true, "\t"
			case "cr":
				el.text, el.value = true, "\n"
			case "noBreakHyphen":
				el.text, el.value = true, "-"
			case "br":
				el.text = true
				if typ := attr(t, "type"); typ == "" || typ == "textWrapping" {
					el.value = "\n"
				}
			}
		}
		parent.run.children = append(parent.run.children, el)
	case parent.propsOf != nil:
		el := newElement()
		f.el = el
		parent.el.children = append(parent.el.children, el)
		if f.word {
			applyProp(&parent.propsOf.Format, f.local, t)
		}
	}
}

func (d *Document) close(f *frame, end int) {
	if f.el != nil {
		f.el.end = end
	}
	if f.run != nil {
		f.run.end = end
		var text []byte
		for _, c := range f.run.children {
			if c.text {
				text = append(text, c.value...)
			}
		}
		f.run.Text = string(text)
	}
}

func applyProp(fm *Format, local string, t xml.StartElement) {
	switch local {
	case "b":
		fm.Bold = onOff(t)
	case "i":
		fm.Italic = onOff(t)
	case "u":
		if v := attr(t, "val"); v != "none" {
			fm.Underline = v
		}
	case "rFonts":
		fm.Font = attr(t, "ascii")
		if fm.Font == "" {
			fm.Font = attr(t, "hAnsi")
		}
	case "sz":
		fm.Size, _ = strconv.Atoi(attr(t, "val"))
	case "color":
		fm.Color = attr(t, "val")
	}
}

func onOff(t xml.StartElement) *bool {
	v := true
	switch attr(t, "val") {
	case "0", "false", "off":
		v = false
	}
	return &v
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local && a.Name.Space != "xmlns" {
			return a.Value
		}
	}
	return ""
}
