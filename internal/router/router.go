package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/pulsecrm/backend/api/handler"
)

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	Customer *apiHandler.CustomerHandler
	Segment  *apiHandler.SegmentHandler
	Campaign *apiHandler.CampaignHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", handlers.Auth.Logout)

	// Vendor callback; authenticated by knowledge of the delivery id.
	r.POST("/api/v1/deliveries/receipt", handlers.Campaign.Receipt)

	// Protected routes
	r.GET("/api/v1/customers", authMiddleware(handlers.Customer.List))
	r.POST("/api/v1/customers", authMiddleware(handlers.Customer.Create))
	r.GET("/api/v1/customers/{id}", authMiddleware(handlers.Customer.Get))
	r.PUT("/api/v1/customers/{id}", authMiddleware(handlers.Customer.Update))
	r.DELETE("/api/v1/customers/{id}", authMiddleware(handlers.Customer.Delete))
	r.POST("/api/v1/orders", authMiddleware(handlers.Customer.IngestOrder))
	r.GET("/api/v1/customers/{id}/orders", authMiddleware(handlers.Customer.Orders))

	r.GET("/api/v1/segments", authMiddleware(handlers.Segment.List))
	r.POST("/api/v1/segments", authMiddleware(handlers.Segment.Create))
	r.POST("/api/v1/segments/preview", authMiddleware(handlers.Segment.Preview))
	r.POST("/api/v1/segments/translate", authMiddleware(handlers.Segment.Translate))
	r.GET("/api/v1/segments/{id}", authMiddleware(handlers.Segment.Get))
	r.PUT("/api/v1/segments/{id}", authMiddleware(handlers.Segment.Update))
	r.DELETE("/api/v1/segments/{id}", authMiddleware(handlers.Segment.Delete))

	r.GET("/api/v1/campaigns", authMiddleware(handlers.Campaign.List))
	r.POST("/api/v1/campaigns", authMiddleware(handlers.Campaign.Create))
	r.POST("/api/v1/campaigns/suggest", authMiddleware(handlers.Campaign.Suggest))
	r.GET("/api/v1/campaigns/{id}", authMiddleware(handlers.Campaign.Get))
	r.GET("/api/v1/campaigns/{id}/logs", authMiddleware(handlers.Campaign.Logs))

	return r
}
