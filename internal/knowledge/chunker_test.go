package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkerSplitByWords(t *testing.T) {
	chunker := NewChunker(4, 1)

	words := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	chunks := chunker.SplitByWords(strings.Join(words, " "))

	// 窗口4词、重叠1词，起点间隔3：0-3, 3-6, 6-9
	assert.Len(t, chunks, 3)
	assert.Equal(t, "a b c d", chunks[0].Text)
	assert.Equal(t, "d e f g", chunks[1].Text)
	assert.Equal(t, "g h i j", chunks[2].Text)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
	}
}

func TestChunkerSplitByWordsShortText(t *testing.T) {
	chunker := NewChunker(250, 50)

	chunks := chunker.SplitByWords("only five words right here")
	assert.Len(t, chunks, 1)
	assert.Equal(t, "only five words right here", chunks[0].Text)
}

func TestChunkerSplitByWordsEmpty(t *testing.T) {
	chunker := NewChunker(250, 50)
	assert.Empty(t, chunker.SplitByWords(""))
	assert.Empty(t, chunker.SplitByWords("   \n\t  "))
}

func TestChunkerSplitBySentencesKeepsSentencesWhole(t *testing.T) {
	chunker := NewChunker(10, 0)

	text := "First sentence has five words. Second sentence also has five. Third one is short."
	chunks := chunker.SplitBySentences(text)

	// 每句5词，预算10词：前两句一块，第三句单独一块
	assert.Len(t, chunks, 2)
	assert.Equal(t, "First sentence has five words. Second sentence also has five.", chunks[0].Text)
	assert.Equal(t, "Third one is short.", chunks[1].Text)

	// 句子不会被截断
	for _, chunk := range chunks {
		assert.True(t, strings.HasSuffix(chunk.Text, "."))
	}
}

func TestChunkerSplitBySentencesOversizedSentence(t *testing.T) {
	chunker := NewChunker(3, 0)

	// 超过预算的单句独占一块，不截断
	chunks := chunker.SplitBySentences("This single sentence runs well past the budget.")
	assert.Len(t, chunks, 1)
	assert.Equal(t, "This single sentence runs well past the budget.", chunks[0].Text)
}

func TestChunkerSplitBySectionsOnHeadings(t *testing.T) {
	chunker := NewChunker(250, 50)

	text := "Department of Computer Science offers several programs. " +
		"Admission requires a strong background.\n" +
		"Department of Electrical Engineering was established in 1962. " +
		"The faculty includes twenty professors."
	chunks := chunker.Split(text, "sections")

	assert.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "Computer Science")
	assert.NotContains(t, chunks[0].Text, "Electrical")
	assert.Contains(t, chunks[1].Text, "Electrical Engineering")
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
}

func TestChunkerSplitBySectionsFallback(t *testing.T) {
	chunker := NewChunker(250, 50)

	// 没有任何标题标记时退化为整句打包
	text := "Just a plain paragraph. It mentions nothing special."
	chunks := chunker.Split(text, "sections")
	assert.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
}

func TestSplitSentencesNoTrailingPunctuation(t *testing.T) {
	sentences := splitSentences("First part. Second part without period")
	assert.Equal(t, []string{"First part.", "Second part without period"}, sentences)
}

func TestSplitSentencesDecimalNotABoundary(t *testing.T) {
	// 小数点后无空白，不是句子边界
	sentences := splitSentences("A minimum CGPA of 3.5 is required. Apply early.")
	assert.Len(t, sentences, 2)
	assert.Equal(t, "A minimum CGPA of 3.5 is required.", sentences[0])
}

func TestExtractMetadataFlags(t *testing.T) {
	chunker := NewChunker(250, 50)

	metadata := chunker.ExtractMetadata(
		"Admission requirements for the Department of Computer Science include a faculty interview.")

	assert.Equal(t, true, metadata["has_eligibility"])
	assert.Equal(t, true, metadata["has_faculty"])
	assert.Equal(t, false, metadata["has_programs"])
	assert.Equal(t, false, metadata["has_introduction"])
	assert.Equal(t, "Computer Science", metadata["department"])
}

func TestExtractMetadataNoDepartment(t *testing.T) {
	chunker := NewChunker(250, 50)

	metadata := chunker.ExtractMetadata("Offered programs: M.Sc and Ph.D degrees.")
	assert.Equal(t, true, metadata["has_programs"])
	_, ok := metadata["department"]
	assert.False(t, ok)
}

func TestNewChunkerClampsOverlap(t *testing.T) {
	chunker := NewChunker(100, 100)
	assert.Equal(t, 25, chunker.chunkOverlap)

	chunker = NewChunker(0, -5)
	assert.Equal(t, 250, chunker.chunkSize)
	assert.Equal(t, 0, chunker.chunkOverlap)
}
