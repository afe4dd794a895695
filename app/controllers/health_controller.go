package controllers

import (
	"net/http"

	"github.com/campushub/backend-go/internal/knowledge"
)

// HealthController 健康检查。任一组件未就绪时状态降级为degraded，
// 但仍返回200，由编排层自行决定是否摘除实例
type HealthController struct {
	BaseController
	embedder  knowledge.Embedder
	store     knowledge.VectorStore
	generator knowledge.Generator
}

func (c *HealthController) Prepare() {
	c.embedder = healthEmbedder
	c.store = healthStore
	c.generator = healthLLM
}

// Health GET /health
func (c *HealthController) Health() {
	components := map[string]interface{}{
		"embedder":     c.embedder.Ready(),
		"vector_store": c.store.Ready(),
		"llm":          c.generator.Ready(),
	}

	status := "ok"
	for _, ready := range components {
		if ready != true {
			status = "degraded"
		}
	}

	indexed := -1
	if count, err := c.store.Count(c.Ctx.Request.Context()); err == nil {
		indexed = count
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"status":         status,
		"components":     components,
		"indexed_chunks": indexed,
	})
}
