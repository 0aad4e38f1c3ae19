// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/amirphl/delivery-zones/app/dto"
	"github.com/amirphl/delivery-zones/app/handlers"
	"github.com/amirphl/delivery-zones/app/middleware"
	"github.com/amirphl/delivery-zones/config"
	_ "github.com/amirphl/delivery-zones/docs"
	"github.com/amirphl/delivery-zones/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                 *fiber.App
	cfg                 *config.ProductionConfig
	shippingHandler     handlers.ShippingHandlerInterface
	addressAdminHandler handlers.AddressAdminHandlerInterface
	zoneAdminHandler    handlers.ZoneAdminHandlerInterface
	authAdminHandler    handlers.AdminHandlerInterface
	authMiddleware      *middleware.AuthMiddleware
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	shippingHandler handlers.ShippingHandlerInterface,
	addressAdminHandler handlers.AddressAdminHandlerInterface,
	zoneAdminHandler handlers.ZoneAdminHandlerInterface,
	authAdminHandler handlers.AdminHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Delivery Zones API",
		ServerHeader: "delivery-zones",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                 app,
		cfg:                 cfg,
		shippingHandler:     shippingHandler,
		addressAdminHandler: addressAdminHandler,
		zoneAdminHandler:    zoneAdminHandler,
		authAdminHandler:    authAdminHandler,
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// API documentation route (development only)
	if r.cfg.Deployment.Environment == "development" || r.cfg.Deployment.Environment == "local" {
		api.Get("/swagger.json", r.serveSwaggerJSON)
		r.app.Get("/swagger", r.serveSwaggerUI)
		log.Println("API documentation enabled for development")
	}

	api.Use(newLimiter(r.cfg.Security.GlobalRateLimit, r.cfg.Security.RateLimitWindow, func(c fiber.Ctx) bool {
		return c.Path() == "/api/v1/health"
	}))

	// Public coverage endpoints
	api.Post("/shipping/quote", r.shippingHandler.Quote)
	api.Post("/addresses/validate", r.shippingHandler.ValidateAddress)
	api.Get("/addresses/:id", r.shippingHandler.GetValidatedAddress)

	// Admin auth routes with stricter rate limiting
	adminAuth := api.Group("/admin/auth")
	adminAuth.Use(newLimiter(r.cfg.Security.AuthRateLimit, r.cfg.Security.RateLimitWindow, nil))
	adminAuth.Post("/login", r.authAdminHandler.Login)
	adminAuth.Post("/refresh", r.authAdminHandler.Refresh)
	adminAuth.Post("/logout", r.authMiddleware.AdminAuthenticate(), r.authAdminHandler.Logout)

	admin := api.Group("/admin", r.authMiddleware.AdminAuthenticate())

	// Zones
	admin.Post("/zones", r.zoneAdminHandler.CreateZone)
	admin.Get("/zones", r.zoneAdminHandler.ListZones)
	admin.Get("/zones/:id", r.zoneAdminHandler.GetZone)
	admin.Put("/zones/:id", r.zoneAdminHandler.UpdateZone)
	admin.Delete("/zones/:id", r.zoneAdminHandler.DeactivateZone)
	admin.Get("/zones/:id/audit-logs", r.zoneAdminHandler.ListAuditLogs)

	// District assignments
	admin.Post("/zones/:id/districts", r.zoneAdminHandler.AssignDistrict)
	admin.Get("/zones/:id/districts", r.zoneAdminHandler.ListDistrictAssignments)
	admin.Put("/districts/:id", r.zoneAdminHandler.UpdateDistrictAssignment)
	admin.Delete("/districts/:id", r.zoneAdminHandler.RemoveDistrictAssignment)

	// Cost tiers
	admin.Post("/zones/:id/tiers", r.zoneAdminHandler.AddTier)
	admin.Get("/zones/:id/tiers", r.zoneAdminHandler.ListTiers)
	admin.Put("/tiers/:id", r.zoneAdminHandler.UpdateTier)
	admin.Delete("/tiers/:id", r.zoneAdminHandler.RemoveTier)

	// Weekly schedules
	admin.Post("/zones/:id/schedules", r.zoneAdminHandler.AddSchedule)
	admin.Get("/zones/:id/schedules", r.zoneAdminHandler.ListSchedules)
	admin.Put("/schedules/:id", r.zoneAdminHandler.UpdateSchedule)
	admin.Delete("/schedules/:id", r.zoneAdminHandler.RemoveSchedule)

	// Date exceptions
	admin.Post("/zones/:id/exceptions", r.zoneAdminHandler.AddException)
	admin.Get("/zones/:id/exceptions", r.zoneAdminHandler.ListExceptions)
	admin.Delete("/exceptions/:id", r.zoneAdminHandler.RemoveException)

	// Address revalidation
	admin.Post("/addresses/revalidate", r.addressAdminHandler.Revalidate)
	admin.Get("/addresses/revalidate/last", r.addressAdminHandler.LastReport)
	admin.Get("/addresses/revalidate/report", r.addressAdminHandler.ExportReport)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

func newLimiter(max int, window time.Duration, next func(c fiber.Ctx) bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: next,
	})
}

// SetupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        r.cfg.Security.XContentTypeOptions,
		XFrameOptions:             r.cfg.Security.XFrameOptions,
		HSTSMaxAge:                r.cfg.Security.HSTSMaxAge,
		ContentSecurityPolicy:     r.cfg.Security.CSPPolicy,
		ReferrerPolicy:            r.cfg.Security.ReferrerPolicy,
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
		Next: func(c fiber.Ctx) bool {
			// Swagger UI loads its assets from a CDN
			return c.Path() == "/swagger"
		},
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     append(r.cfg.Security.AllowedHeaders, "X-Request-ID"),
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials && !allowsAnyOrigin(r.cfg.Security.AllowedOrigins),
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
		}))
	}

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/api/v1/health" || c.Path() == r.cfg.Metrics.Path
			},
		}))
	}
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "delivery-zones-api",
		},
	})
}

// Serve Swagger UI HTML page
func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	htmlContent := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Delivery Zones API - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '/api/v1/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`

	c.Set("Content-Type", "text/html")
	return c.SendString(htmlContent)
}

// Serve the swagger document registered by the docs package
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set("Content-Type", "application/json")
	return c.SendString(doc)
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errorCode := "INTERNAL_ERROR"

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if code < fiber.StatusInternalServerError {
			message = e.Message
			errorCode = "REQUEST_ERROR"
		}
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errorCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// Helper functions

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func allowsAnyOrigin(origins []string) bool {
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}
