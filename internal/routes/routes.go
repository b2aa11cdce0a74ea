package routes

import (
	"io"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"agentdesk/internal/controllers"
	"agentdesk/internal/middleware"
	"agentdesk/internal/policy"
)

const healthPath = "/api/health"

// Options carries the pieces of the router that are built from config.
type Options struct {
	// Sessions is required: authentication reads the session first.
	Sessions     gin.HandlerFunc
	LoginLimiter *middleware.RateLimiter
	// AccessLog receives one line per request; nil disables access logging.
	AccessLog io.Writer
}

// handlers groups one instance of every controller.
type handlers struct {
	auth       *controllers.AuthController
	admin      *controllers.AdminController
	manager    *controllers.ManagerController
	users      *controllers.UserController
	managers   *controllers.UserController
	salesStaff *controllers.UserController
	fieldUsers *controllers.UserController
	groups     *controllers.GroupController
	clients    *controllers.ClientController
	attendance *controllers.AttendanceController
	messages   *controllers.MessageController
}

func newHandlers(deps *controllers.Deps) *handlers {
	return &handlers{
		auth:       controllers.NewAuthController(deps),
		admin:      controllers.NewAdminController(deps),
		manager:    controllers.NewManagerController(deps),
		users:      controllers.NewUserController(deps, policy.ResourceUsers),
		managers:   controllers.NewUserController(deps, policy.ResourceManagers),
		salesStaff: controllers.NewUserController(deps, policy.ResourceSalesStaff),
		fieldUsers: controllers.NewUserController(deps, policy.ResourceFieldUsers),
		groups:     controllers.NewGroupController(deps),
		clients:    controllers.NewClientController(deps),
		attendance: controllers.NewAttendanceController(deps),
		messages:   controllers.NewMessageController(deps),
	}
}

func SetupRouter(deps *controllers.Deps, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if opts.AccessLog != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(opts.AccessLog),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{healthPath}),
		))
	}
	r.Use(gin.Recovery(), opts.Sessions)

	h := newHandlers(deps)
	api := r.Group("/api")
	api.GET("/health", controllers.Health(deps.Store))

	AuthRoutes(api, h, deps.Auth, opts.LoginLimiter)

	protected := api.Group("")
	protected.Use(deps.Auth.RequireAuth())
	{
		AdminRoutes(protected, h)
		ManagerRoutes(protected, h)
		SalesStaffRoutes(protected, h)
		LeaderRoutes(protected, h)
		AgentRoutes(protected, h)
		MessageRoutes(protected, h)
	}
	return r
}
