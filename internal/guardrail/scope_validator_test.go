package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testKeywords = []string{
	"admission", "faculty", "program", "degree", "department", "eligibility",
}

func TestClassifyAcceptsByScore(t *testing.T) {
	v := NewScopeValidator(testKeywords, 0.15, nil)

	// 1命中/5词 = 0.2 >= 0.15
	result := v.Classify("what about admission here today")
	assert.True(t, result.Accepted)
	assert.InDelta(t, 0.2, result.Score, 1e-9)
	assert.Contains(t, result.Reason, "Matched 1 keywords")
}

func TestClassifyAcceptsByTwoMatchesDespiteLowScore(t *testing.T) {
	v := NewScopeValidator(testKeywords, 0.15, nil)

	// 2命中/16词 = 0.125 < 0.15，但命中数达到2仍然接受
	result := v.Classify(
		"could you please tell me something about the admission process and also the faculty members")
	assert.True(t, result.Accepted)
	assert.Less(t, result.Score, 0.15)
}

func TestClassifyRejectsOffTopic(t *testing.T) {
	v := NewScopeValidator(testKeywords, 0.15, nil)

	result := v.Classify("what is the weather today in the northern mountains")
	assert.False(t, result.Accepted)
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, "No keyword matches", result.Reason)
}

func TestClassifyRejectsEmptyBeforeTokenizing(t *testing.T) {
	v := NewScopeValidator(testKeywords, 0.15, nil)

	for _, question := range []string{"", "   ", "\n\t"} {
		result := v.Classify(question)
		assert.False(t, result.Accepted)
		assert.Equal(t, "Empty question", result.Reason)
	}
}

func TestClassifyRejectsPunctuationOnly(t *testing.T) {
	v := NewScopeValidator(testKeywords, 0.15, nil)

	result := v.Classify("?!...")
	assert.False(t, result.Accepted)
	assert.Equal(t, "No valid words in question", result.Reason)
}

func TestClassifyIsCaseInsensitiveAndSubstring(t *testing.T) {
	v := NewScopeValidator(testKeywords, 0.15, nil)

	// ADMISSIONS 命中关键词 admission（子串匹配）
	result := v.Classify("ADMISSIONS info")
	assert.True(t, result.Accepted)
}

func TestAddKeywordsExtendsAtRuntime(t *testing.T) {
	v := NewScopeValidator(testKeywords, 0.15, nil)
	before := v.KeywordCount()

	result := v.Classify("tell me about the hostel")
	assert.False(t, result.Accepted)

	v.AddKeywords([]string{"Hostel", "  ", "mess"})
	assert.Equal(t, before+2, v.KeywordCount())

	result = v.Classify("tell me about the hostel")
	assert.True(t, result.Accepted)
}

func TestNewScopeValidatorDefaultThreshold(t *testing.T) {
	v := NewScopeValidator(testKeywords, 0, nil)
	assert.Equal(t, 0.15, v.threshold)
}
