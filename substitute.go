package docxtemplar

import (
	"strings"

	"github.com/nikitaxru/docxtemplar/docx"
)

// StylePolicy определяет, что происходит с форматированием переписанного абзаца.
type StylePolicy int

const (
	// StylePreserve сохраняет свойства первой run, но жирный шрифт всегда снимается:
	// подставленные значения не должны быть жирными, даже если плейсхолдер был.
	StylePreserve StylePolicy = iota
	// StyleMinimal меняет только текст.
	StyleMinimal
)

func (p StylePolicy) String() string {
	if p == StyleMinimal {
		return "minimal"
	}
	return "preserve"
}

// Paragraph — то, что движку нужно от абзаца документа.
type Paragraph interface {
	RunTexts() []string
	ReplaceText(text string, clearBold bool)
}

// SubstituteTokens заменяет все плейсхолдеры в тексте. Текст вне {{...}} не трогается.
func SubstituteTokens(text string, res TokenResolver) string {
	segs := splitTokens(text)
	if segs == nil {
		return text
	}
	var sb strings.Builder
	for _, sg := range segs {
		if sg.kind == segmentText {
			sb.WriteString(sg.text)
			continue
		}
		sb.WriteString(res.Resolve(sg.token))
	}
	return sb.String()
}

// ParagraphPlan — итог обработки абзаца до применения к документу.
type ParagraphPlan struct {
	Text      string
	ClearBold bool
}

// PlanParagraph склеивает тексты run и считает результат подстановки.
// false означает, что плейсхолдеров нет и абзац трогать нельзя.
func PlanParagraph(runTexts []string, res TokenResolver, style StylePolicy) (ParagraphPlan, bool) {
	full := strings.Join(runTexts, "")
	if !HasToken(full) {
		return ParagraphPlan{}, false
	}
	return ParagraphPlan{
		Text:      SubstituteTokens(full, res),
		ClearBold: style == StylePreserve,
	}, true
}

// RewriteParagraph применяет план: весь текст уходит в первую run, остальные очищаются.
func RewriteParagraph(p Paragraph, res TokenResolver, style StylePolicy) bool {
	plan, ok := PlanParagraph(p.RunTexts(), res, style)
	if !ok {
		return false
	}
	p.ReplaceText(plan.Text, plan.ClearBold)
	return true
}

// Report — статистика обработки документа.
type Report struct {
	Paragraphs int
	Rewritten  int
}

// ProcessDocument обходит абзацы тела, затем абзацы всех ячеек всех таблиц.
func ProcessDocument(doc *docx.Document, res TokenResolver, style StylePolicy) Report {
	var rep Report
	for _, group := range [][]*docx.Paragraph{doc.BodyParagraphs(), doc.TableParagraphs()} {
		for _, p := range group {
			rep.Paragraphs++
			if RewriteParagraph(p, res, style) {
				rep.Rewritten++
			}
		}
	}
	return rep
}
