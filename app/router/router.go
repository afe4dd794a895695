package router

import (
	"github.com/beego/beego/v2/server/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campushub/backend-go/app/controllers"
)

// Init registers all routes. Must be called after controllers.Setup.
func Init() {
	web.Router("/health", &controllers.HealthController{}, "get:Health")

	web.Router("/api/ask", &controllers.AskController{}, "post:Ask")
	web.Router("/api/ask/batch", &controllers.AskController{}, "post:AskBatch")
	web.Router("/api/guardrail/check", &controllers.GuardrailController{}, "get:Check")

	web.Handler("/metrics", promhttp.Handler())
}
