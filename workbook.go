package docxtemplar

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ValueKind — тип значения ячейки.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindNumber
	KindText
	KindBool
	KindTime
)

// Value — кэшированное значение ячейки. Формулы не вычисляются,
// читается только последний сохранённый Excel результат.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
	Bool bool
	Time time.Time
	// TimeOnly — серийное число меньше суток, дата не выводится.
	TimeOnly bool
}

// IsEmpty возвращает true для отсутствующего значения.
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// Workbook — источник значений ячеек. Ошибка означает, что лист или адрес
// не найдены; пустая ячейка ошибкой не считается.
type Workbook interface {
	Cell(sheet, ref string) (Value, error)
}

// ExcelWorkbook читает значения из xlsx/xlsm через excelize.
type ExcelWorkbook struct {
	f        *excelize.File
	date1904 bool
}

// OpenWorkbook открывает книгу из буфера. Закрывать через Close.
func OpenWorkbook(data []byte) (*ExcelWorkbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return NewExcelWorkbook(f), nil
}

// NewExcelWorkbook оборачивает уже открытый файл.
func NewExcelWorkbook(f *excelize.File) *ExcelWorkbook {
	wb := &ExcelWorkbook{f: f}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.date1904 = *props.Date1904
	}
	return wb
}

// Sheets возвращает имена листов в порядке книги.
func (w *ExcelWorkbook) Sheets() []string { return w.f.GetSheetList() }

func (w *ExcelWorkbook) Close() error { return w.f.Close() }

// Cell читает значение ячейки. Адреса вида $B$7 допускаются.
// Имя листа сравнивается с учётом регистра: excelize сам ищет без него.
func (w *ExcelWorkbook) Cell(sheet, ref string) (Value, error) {
	if !slices.Contains(w.f.GetSheetList(), sheet) {
		return Value{}, excelize.ErrSheetNotExist{SheetName: sheet}
	}
	ref = normalizeRef(ref)
	if _, _, err := excelize.CellNameToCoordinates(ref); err != nil {
		return Value{}, err
	}
	typ, err := w.f.GetCellType(sheet, ref)
	if err != nil {
		return Value{}, err
	}
	raw, err := w.f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		return Value{}, err
	}
	if raw == "" {
		return Value{}, nil
	}
	switch typ {
	case excelize.CellTypeBool:
		return Value{Kind: KindBool, Bool: raw == "1" || strings.EqualFold(raw, "true")}, nil
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		// числа в xlsx обычно хранятся без атрибута t, поэтому Unset тоже число
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{Kind: KindText, Text: raw}, nil
		}
		if w.isDateCell(sheet, ref) {
			if t, err := excelize.ExcelDateToTime(n, w.date1904); err == nil {
				return Value{Kind: KindTime, Time: t, TimeOnly: n < 1}, nil
			}
		}
		return Value{Kind: KindNumber, Num: n}, nil
	case excelize.CellTypeDate:
		// t="d": значение хранится строкой ISO 8601
		if v, ok := parseISODate(raw); ok {
			return v, nil
		}
		return Value{Kind: KindText, Text: raw}, nil
	default:
		return Value{Kind: KindText, Text: raw}, nil
	}
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseISODate(raw string) (Value, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Value{Kind: KindTime, Time: t}, true
		}
	}
	for _, layout := range []string{"15:04:05.999999999", "T15:04:05.999999999"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return Value{Kind: KindTime, Time: t, TimeOnly: true}, true
		}
	}
	return Value{}, false
}

// isDateCell проверяет числовой формат ячейки: встроенные форматы дат
// и пользовательские маски с y/m/d/h/s.
func (w *ExcelWorkbook) isDateCell(sheet, ref string) bool {
	sid, err := w.f.GetCellStyle(sheet, ref)
	if err != nil || sid == 0 {
		return false
	}
	style, err := w.f.GetStyle(sid)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
		return isDateMask(*style.CustomNumFmt)
	}
	return isBuiltinDateFmt(style.NumFmt)
}

func isBuiltinDateFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

func isDateMask(mask string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(mask) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "general" {
		return false
	}
	return strings.ContainsAny(clean, "ymdhs")
}

func normalizeRef(ref string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ref), "$", ""))
}

// firstRow переводит диапазон в номера колонок и строку, которая будет прочитана.
// Углы могут быть заданы в любом порядке.
func firstRow(start, end string) (fromCol, toCol, row int, err error) {
	c1, r1, err := excelize.CellNameToCoordinates(normalizeRef(start))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("начало диапазона %q: %w", start, err)
	}
	c2, r2, err := excelize.CellNameToCoordinates(normalizeRef(end))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("конец диапазона %q: %w", end, err)
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	return c1, c2, min(r1, r2), nil
}
