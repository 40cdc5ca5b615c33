package docxtemplar

import (
	"regexp"
	"strings"
)

// Синтаксис плейсхолдеров в документе Word:
// - {{Лист!A1}}     — одна ячейка
// - {{Лист!B7:E9}}  — диапазон (используется только первая строка)
// - {{поле}}        — именованное поле, всегда пустая строка
// Вложенность и фигурные скобки внутри плейсхолдера не поддерживаются.

// TokenKind различает варианты плейсхолдера.
type TokenKind int

const (
	TokenField TokenKind = iota
	TokenCell
	TokenRange
)

func (k TokenKind) String() string {
	switch k {
	case TokenCell:
		return "cell"
	case TokenRange:
		return "range"
	default:
		return "field"
	}
}

// Token — разобранное содержимое {{ ... }}.
type Token struct {
	Kind  TokenKind
	Sheet string
	// Ref — адрес ячейки (A1) или диапазона (B7:E9) без пробелов по краям.
	Ref string
	// Name заполняется только для TokenField.
	Name string
}

// Start возвращает левый верхний угол диапазона (или саму ячейку).
func (t Token) Start() string {
	start, _, _ := strings.Cut(t.Ref, ":")
	return strings.TrimSpace(start)
}

// End возвращает правый нижний угол диапазона; для ячейки совпадает со Start.
func (t Token) End() string {
	_, end, ok := strings.Cut(t.Ref, ":")
	if !ok {
		return t.Start()
	}
	return strings.TrimSpace(end)
}

func (t Token) String() string {
	if t.Kind == TokenField {
		return "{{" + t.Name + "}}"
	}
	return "{{" + t.Sheet + "!" + t.Ref + "}}"
}

var rxToken = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// ParseToken разбирает содержимое плейсхолдера (без фигурных скобок).
// Делим по первому '!', двоеточие в адресе означает диапазон.
func ParseToken(content string) Token {
	content = strings.TrimSpace(content)
	sheet, ref, ok := strings.Cut(content, "!")
	if !ok {
		return Token{Kind: TokenField, Name: content}
	}
	tok := Token{Kind: TokenCell, Sheet: strings.TrimSpace(sheet), Ref: strings.TrimSpace(ref)}
	if strings.Contains(tok.Ref, ":") {
		tok.Kind = TokenRange
	}
	return tok
}

// HasToken сообщает, есть ли в тексте хотя бы один плейсхолдер.
func HasToken(s string) bool { return rxToken.MatchString(s) }

type segmentKind int

const (
	segmentText segmentKind = iota
	segmentToken
)

type segment struct {
	kind  segmentKind
	text  string
	token Token
}

// splitTokens режет строку на литеральный текст и плейсхолдеры в исходном порядке.
func splitTokens(s string) []segment {
	ms := rxToken.FindAllStringSubmatchIndex(s, -1)
	if len(ms) == 0 {
		return nil
	}
	var segs []segment
	last := 0
	for _, m := range ms {
		start, end := m[0], m[1]
		cs, ce := m[2], m[3]
		if start > last {
			segs = append(segs, segment{kind: segmentText, text: s[last:start]})
		}
		segs = append(segs, segment{kind: segmentToken, text: s[start:end], token: ParseToken(s[cs:ce])})
		last = end
	}
	if last < len(s) {
		segs = append(segs, segment{kind: segmentText, text: s[last:]})
	}
	return segs
}
