package controllers

import (
	"github.com/campushub/backend-go/internal/guardrail"
)

// GuardrailController 域内判定调试接口，
// 便于在不触发检索的情况下观察关键词命中情况
type GuardrailController struct {
	BaseController
	validator *guardrail.ScopeValidator
}

func (c *GuardrailController) Prepare() {
	c.validator = scopeValidator
}

// Check GET /api/guardrail/check?q=...
func (c *GuardrailController) Check() {
	question := c.GetString("q")
	result := c.validator.Classify(question)

	c.JSONSuccess(map[string]interface{}{
		"question": question,
		"accepted": result.Accepted,
		"score":    result.Score,
		"reason":   result.Reason,
	})
}
