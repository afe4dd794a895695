package controllers

import (
	"github.com/campushub/backend-go/internal/services"
)

// AskRequest 单问请求，question必填，其余字段为零时用服务默认值
type AskRequest struct {
	Question    string  `json:"question" validate:"required"`
	TopK        int     `json:"top_k" validate:"omitempty,min=1,max=20"`
	MaxTokens   int     `json:"max_tokens" validate:"omitempty,min=1,max=4096"`
	Temperature float64 `json:"temperature" validate:"omitempty,gt=0,lte=2"`
}

// BatchAskRequest 批量请求
type BatchAskRequest struct {
	Questions   []string `json:"questions" validate:"required,min=1,max=50,dive,required"`
	TopK        int      `json:"top_k" validate:"omitempty,min=1,max=20"`
	MaxTokens   int      `json:"max_tokens" validate:"omitempty,min=1,max=4096"`
	Temperature float64  `json:"temperature" validate:"omitempty,gt=0,lte=2"`
}

// AskController 问答接口。拒答与无上下文属于预期分支，
// 一律返回200，答案结构里携带具体状态
type AskController struct {
	BaseController
	service *services.AnswerService
}

func (c *AskController) Prepare() {
	c.service = answerService
}

// Ask POST /api/ask
func (c *AskController) Ask() {
	var req AskRequest
	if !c.BindJSON(&req) {
		return
	}

	answer := c.service.Ask(c.Ctx.Request.Context(), req.Question, services.AskOptions{
		TopK:        req.TopK,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	c.JSONSuccess(answer)
}

// AskBatch POST /api/ask/batch
func (c *AskController) AskBatch() {
	var req BatchAskRequest
	if !c.BindJSON(&req) {
		return
	}

	answers := c.service.AskBatch(c.Ctx.Request.Context(), req.Questions, services.AskOptions{
		TopK:        req.TopK,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	c.JSONSuccess(answers)
}
