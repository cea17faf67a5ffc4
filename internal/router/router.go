package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"floweradmin/internal/config"
	"floweradmin/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	accountHandler *handler.AccountHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Confirmation link from the email lands here
	api.GET("/accounts/confirm/:code", accountHandler.ConfirmByCode)

	// Account management (requires JWT authentication)
	admin := api.Group("/admin", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
	}))

	// Listings per lifecycle view
	admin.GET("/accounts", accountHandler.List)
	admin.GET("/accounts/deactivated", accountHandler.ListDeactivated)
	admin.GET("/accounts/deleted", accountHandler.ListDeleted)

	// CRUD
	admin.POST("/accounts", accountHandler.Create)
	admin.GET("/accounts/:id", accountHandler.Get)
	admin.PATCH("/accounts/:id", accountHandler.Update)
	admin.DELETE("/accounts/:id", accountHandler.Delete)

	// Lifecycle actions
	admin.PATCH("/accounts/:id/password", accountHandler.UpdatePassword)
	admin.POST("/accounts/:id/mark/:status", accountHandler.Mark)
	admin.POST("/accounts/:id/confirm", accountHandler.Confirm)
	admin.POST("/accounts/:id/unconfirm", accountHandler.Unconfirm)
	admin.POST("/accounts/:id/restore", accountHandler.Restore)
	admin.POST("/accounts/:id/delete", accountHandler.DeletePermanently)

	// Audit trail
	admin.GET("/accounts/:id/audit", accountHandler.Audit)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
