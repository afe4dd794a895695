package controllers

import (
	"github.com/campushub/backend-go/internal/guardrail"
	"github.com/campushub/backend-go/internal/knowledge"
	"github.com/campushub/backend-go/internal/services"
)

// beego每次请求都会通过反射新建控制器实例，注入的字段不会保留，
// 各控制器在Prepare里从这里取已装配的服务
var (
	answerService  *services.AnswerService
	scopeValidator *guardrail.ScopeValidator
	healthEmbedder knowledge.Embedder
	healthStore    knowledge.VectorStore
	healthLLM      knowledge.Generator
)

// Setup 注册装配好的服务，必须在路由注册前调用
func Setup(
	answer *services.AnswerService,
	validator *guardrail.ScopeValidator,
	embedder knowledge.Embedder,
	store knowledge.VectorStore,
	generator knowledge.Generator,
) {
	answerService = answer
	scopeValidator = validator
	healthEmbedder = embedder
	healthStore = store
	healthLLM = generator
}
