package markdown

import (
	"fmt"
	"strings"
)

// WarningNotFound 目标语言没有配置警告时使用的内容
const WarningNotFound = "Warning Not Found"

// InsertEmptyLines 按升序在对应下标插入空行，超出末尾的下标追加到末尾
func InsertEmptyLines(lines []string, positions []int) []string {
	out := make([]string, 0, len(lines)+len(positions))
	out = append(out, lines...)
	for _, pos := range positions {
		if pos >= len(out) {
			out = append(out, "")
			continue
		}
		if pos < 0 {
			pos = 0
		}
		out = append(out, "")
		copy(out[pos+1:], out[pos:])
		out[pos] = ""
	}
	return out
}

// WarningText 返回警告占位节点的填充内容
func WarningText(lang string, warnings map[string]string) string {
	w, ok := warnings[lang]
	if !ok {
		// 配置中的键可能被统一转成小写
		for k, v := range warnings {
			if strings.EqualFold(k, lang) {
				w, ok = v, true
				break
			}
		}
	}
	if !ok || w == "" {
		w = WarningNotFound
	}
	return "\n> " + w + "\n"
}

// Assemble 将各文本块的译文填回节点并生成目标文档。
// chunkTexts 与 doc.Chunks 一一对应，文档本身不会被修改。
func Assemble(doc *Document, chunkTexts []string, lang string, warnings map[string]string) (string, error) {
	return AssembleSpaced(doc, chunkTexts, lang, warnings, nil)
}

// AssembleSpaced 与 Assemble 相同，但在填回前用 spacer 修复译文行的空格。
// 只处理来自可翻译节点的行，代码块、公式等透明节点保持原样。spacer 可为空。
func AssembleSpaced(doc *Document, chunkTexts []string, lang string, warnings map[string]string, spacer *Spacer) (string, error) {
	if len(chunkTexts) != len(doc.Chunks) {
		return "", fmt.Errorf("%w: got %d chunks, want %d", ErrLineCountMismatch, len(chunkTexts), len(doc.Chunks))
	}
	lines := InsertEmptyLines(SplitLines(strings.Join(chunkTexts, "")), doc.EmptyLinePositions)

	if spacer != nil && spacer.IsCompact(lang) {
		spacer = nil
	}

	var sb strings.Builder
	var last rune
	pos := 0
	for i, node := range doc.Nodes {
		n := node.TransLineCount()
		if n == 0 {
			value := node.Value()
			if t, ok := node.(*TransparentNode); ok && t.IsWarning() {
				value = WarningText(lang, warnings)
			}
			sb.WriteString(node.Compose(value))
			continue
		}
		if pos+n > len(lines) {
			return "", fmt.Errorf("%w: node %d needs lines %d..%d, buffer has %d",
				ErrLineCountMismatch, i, pos, pos+n-1, len(lines))
		}
		value := lines[pos : pos+n]
		if spacer != nil {
			value = append([]string(nil), value...)
			last = spacer.normalizeLines(value, last)
		}
		sb.WriteString(node.Compose(strings.Join(value, "\n")))
		pos += n
	}
	if pos != len(lines) {
		return "", fmt.Errorf("%w: %d translated lines left over", ErrLineCountMismatch, len(lines)-pos)
	}

	out := sb.String()
	if !doc.TrailingNewline {
		out = strings.TrimSuffix(out, "\n")
	}
	return out, nil
}
