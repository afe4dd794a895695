package knowledge

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Chunk 表示分块后的文本结构
type Chunk struct {
	Index int
	Text  string
}

// Chunker 文本分块器，支持固定词窗、整句打包与章节感知三种模式
type Chunker struct {
	chunkSize    int // 以词计
	chunkOverlap int
}

var (
	departmentPattern = regexp.MustCompile(`Department of ([A-Z][a-zA-Z\s&]*(?:Engineering|Science|Management))`)
	sectionHeading    = regexp.MustCompile(`(?m)\bDepartment of\b|^\d+\.|^[A-Z][A-Z \t]{5,}$`)
)

// NewChunker 创建分块器
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 250
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: overlap,
	}
}

// Split 按配置的模式切分文本
func (c *Chunker) Split(text, mode string) []Chunk {
	switch mode {
	case "words":
		return c.SplitByWords(text)
	case "sentences":
		return c.SplitBySentences(text)
	default:
		return c.SplitBySections(text)
	}
}

// SplitByWords 固定词窗切分：每个窗口至多chunkSize个词，
// 相邻窗口起点相距 chunkSize-overlap 个词，相邻块共享overlap个词
func (c *Chunker) SplitByWords(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = c.chunkSize
	}

	var chunks []Chunk
	for start := 0; start < len(words); start += step {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  strings.Join(words[start:end], " "),
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}

// SplitBySentences 整句打包：贪心地把完整句子装入块中，
// 词数不超过chunkSize；句子永远不会被截断到两个块里
func (c *Chunker) SplitBySentences(text string) []Chunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, Chunk{
				Index: len(chunks),
				Text:  strings.Join(current, " "),
			})
			current = nil
			currentWords = 0
		}
	}

	for _, sentence := range sentences {
		n := len(strings.Fields(sentence))
		if n == 0 {
			continue
		}
		if currentWords+n <= c.chunkSize {
			current = append(current, sentence)
			currentWords += n
			continue
		}
		flush()
		current = append(current, sentence)
		currentWords = n
	}
	flush()

	return chunks
}

// SplitBySections 章节感知切分：先按标题类标记（"Department of"、
// 数字编号、全大写行）拆出章节，每个章节再独立整句打包；
// 未识别到任何标题时退化为整句打包
func (c *Chunker) SplitBySections(text string) []Chunk {
	sections := splitSections(text)
	if len(sections) <= 1 {
		return c.SplitBySentences(text)
	}

	var chunks []Chunk
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		for _, sc := range c.SplitBySentences(section) {
			sc.Index = len(chunks)
			chunks = append(chunks, sc)
		}
	}
	return chunks
}

// ExtractMetadata 从块文本派生检索用元数据标记
func (c *Chunker) ExtractMetadata(chunk string) map[string]interface{} {
	lower := strings.ToLower(chunk)

	metadata := map[string]interface{}{
		"has_eligibility": strings.Contains(lower, "eligibility") ||
			strings.Contains(lower, "admission") ||
			strings.Contains(lower, "requirement"),
		"has_programs": strings.Contains(lower, "offered programs") ||
			strings.Contains(lower, "programs:"),
		"has_faculty": strings.Contains(lower, "faculty") ||
			strings.Contains(lower, "professor") ||
			strings.Contains(lower, "dean"),
		"has_introduction": strings.Contains(lower, "introduction:") ||
			strings.Contains(lower, "established"),
	}

	if m := departmentPattern.FindStringSubmatch(chunk); m != nil {
		metadata["department"] = strings.TrimSpace(m[1])
	}

	return metadata
}

// splitSentences 按 .!? 后跟空白的边界切句，保留标点
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// splitSections 在标题类标记处切分，标记保留在所属章节开头
func splitSections(text string) []string {
	matches := sectionHeading.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	offsets := make([]int, 0, len(matches)+1)
	offsets = append(offsets, 0)
	for _, m := range matches {
		if m[0] > 0 {
			offsets = append(offsets, m[0])
		}
	}
	sort.Ints(offsets)

	var sections []string
	for i, off := range offsets {
		end := len(text)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if off >= end {
			continue
		}
		sections = append(sections, text[off:end])
	}
	return sections
}
