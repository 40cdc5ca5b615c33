package docxtemplar

import (
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// TokenResolver превращает плейсхолдер в итоговую строку.
type TokenResolver interface {
	Resolve(tok Token) string
}

// Resolver ищет значения в книге. Ошибки поиска никогда не выходят наружу:
// они логируются, а вместо значения подставляется пустая строка.
type Resolver struct {
	wb     Workbook
	logger *slog.Logger
}

// NewResolver создаёт резолвер для одной книги. logger может быть nil.
func NewResolver(wb Workbook, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{wb: wb, logger: logger}
}

// Resolve диспетчеризует токен по его типу. Диапазон склеивается через ", ".
func (r *Resolver) Resolve(tok Token) string {
	switch tok.Kind {
	case TokenCell:
		return r.ResolveCell(tok.Sheet, tok.Ref)
	case TokenRange:
		return joinValues(r.ResolveRange(tok.Sheet, tok.Ref))
	default:
		// именованные поля пока не связаны ни с каким источником
		r.logger.Debug("поле без листа пропущено", "field", tok.Name)
		return ""
	}
}

// ResolveCell возвращает отформатированное значение одной ячейки.
func (r *Resolver) ResolveCell(sheet, ref string) string {
	v, err := r.wb.Cell(sheet, ref)
	if err != nil {
		r.logger.Error("❌ ошибка в ячейке", "sheet", sheet, "cell", ref, "error", err)
		return ""
	}
	if v.IsEmpty() {
		r.logger.Warn("⚠️ пустая ячейка", "sheet", sheet, "cell", ref)
		return ""
	}
	return FormatValue(v)
}

// ResolveRange читает только первую строку диапазона: B7:E9 ведёт себя как B7:E7.
// Любая ошибка даёт пустой срез.
func (r *Resolver) ResolveRange(sheet, ref string) []string {
	tok := Token{Kind: TokenRange, Sheet: sheet, Ref: ref}
	fromCol, toCol, row, err := firstRow(tok.Start(), tok.End())
	if err != nil {
		r.logger.Error("❌ ошибка в диапазоне", "sheet", sheet, "range", ref, "error", err)
		return []string{}
	}
	out := make([]string, 0, toCol-fromCol+1)
	for col := fromCol; col <= toCol; col++ {
		name, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			r.logger.Error("❌ ошибка в диапазоне", "sheet", sheet, "range", ref, "error", err)
			return []string{}
		}
		v, err := r.wb.Cell(sheet, name)
		if err != nil {
			r.logger.Error("❌ ошибка в диапазоне", "sheet", sheet, "range", ref, "error", err)
			return []string{}
		}
		out = append(out, FormatValue(v))
	}
	return out
}
