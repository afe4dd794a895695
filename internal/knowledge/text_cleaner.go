package knowledge

import (
	"regexp"
	"strings"
)

// TextCleaner 清理PDF提取后的原始文本
type TextCleaner struct {
	specialChars  *regexp.Regexp
	tabsSpaces    *regexp.Regexp
	extraNewlines *regexp.Regexp
	hyphenBreak   *regexp.Regexp
	spacedPunct   *regexp.Regexp
}

// NewTextCleaner 创建文本清理器
func NewTextCleaner() *TextCleaner {
	return &TextCleaner{
		specialChars:  regexp.MustCompile(`[^\w\s.,;:?!\-()\[\]{}/'"%$#@&+=*]`),
		tabsSpaces:    regexp.MustCompile(`[ \t]+`),
		extraNewlines: regexp.MustCompile(`\n\s*\n\s*\n+`),
		hyphenBreak:   regexp.MustCompile(`(\w)-\s+(\w)`),
		spacedPunct:   regexp.MustCompile(`\s+([.,;:!?])`),
	}
}

// Clean 依次执行去噪、空白归一化、多余空行压缩与常见OCR修复
func (c *TextCleaner) Clean(text string) string {
	if text == "" {
		return ""
	}

	cleaned := c.specialChars.ReplaceAllString(text, " ")
	cleaned = c.tabsSpaces.ReplaceAllString(cleaned, " ")
	cleaned = c.extraNewlines.ReplaceAllString(cleaned, "\n\n")
	// 跨行断字：hy- phenated -> hyphenated
	cleaned = c.hyphenBreak.ReplaceAllString(cleaned, "$1$2")
	cleaned = c.spacedPunct.ReplaceAllString(cleaned, "$1")

	return strings.TrimSpace(cleaned)
}
