package router

import (
	"time"

	"github.com/chronograph-app/chronograph/internal/auth"
	"github.com/chronograph-app/chronograph/internal/config"
	"github.com/chronograph-app/chronograph/internal/handlers"
	"github.com/chronograph-app/chronograph/internal/holidays"
	"github.com/chronograph-app/chronograph/internal/mailer"
	"github.com/chronograph-app/chronograph/internal/middleware"
	"github.com/chronograph-app/chronograph/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewRouter wires every service and handler. All dependencies flow in through
// cfg and gdb; nothing here reads the environment.
func NewRouter(cfg *config.Config, gdb *gorm.DB) *gin.Engine {
	tokens := auth.NewTokenManager(cfg.JWTSecret)

	var notifier services.Notifier
	if cfg.SMTPHost != "" {
		notifier = mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	}

	holidayClient := holidays.NewClient(cfg.NagerBaseURL)

	calendarService := services.NewCalendarService(gdb)
	eventService := services.NewEventService(gdb)
	memberService := services.NewMemberService(gdb)
	invitationService := services.NewInvitationService(gdb, notifier, cfg.ClientURL)
	holidayService := services.NewHolidayService(gdb, holidayClient)

	authHandler := handlers.NewAuthHandler(gdb, tokens, calendarService, cfg.Domain)
	calendarHandler := handlers.NewCalendarHandler(calendarService, holidayService, holidayClient)
	eventHandler := handlers.NewEventHandler(eventService)
	memberHandler := handlers.NewMemberHandler(memberService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	exportHandler := handlers.NewExportHandler(eventService, cfg.Domain)
	wsHandler := handlers.NewWSHandler(calendarService, cfg.AllowedOrigins)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:calendar_id", middleware.AuthMiddleware(tokens), wsHandler.WebSocket)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", middleware.AuthMiddleware(tokens), authHandler.Me)
			authGroup.POST("/logout", middleware.AuthMiddleware(tokens), authHandler.Logout)
			authGroup.PATCH("/me", middleware.AuthMiddleware(tokens), authHandler.UpdateUser)
			authGroup.DELETE("/me", middleware.AuthMiddleware(tokens), authHandler.DeleteUser)
		}

		calendars := api.Group("/calendars", middleware.AuthMiddleware(tokens))
		{
			calendars.POST("", calendarHandler.Create)
			calendars.GET("", calendarHandler.ListOwned)
			calendars.GET("/participating", calendarHandler.ListParticipating)
			calendars.GET("/public", calendarHandler.ListPublic)
			calendars.GET("/holidays/countries", calendarHandler.ListHolidayCountries)
			calendars.POST("/holidays/:country_code", calendarHandler.ImportHolidays)

			calendars.GET("/:calendar_id", calendarHandler.Get)
			calendars.PATCH("/:calendar_id", calendarHandler.Update)
			calendars.DELETE("/:calendar_id", calendarHandler.Delete)
			calendars.POST("/:calendar_id/participate", calendarHandler.Participate)
			calendars.GET("/:calendar_id/export.ics", exportHandler.ExportICS)
			calendars.GET("/:calendar_id/imports", calendarHandler.ListHolidayImports)

			calendars.GET("/:calendar_id/members", memberHandler.ListCalendarMembers)
			calendars.PATCH("/:calendar_id/members/:user_id", memberHandler.UpdateCalendarMemberRole)
			calendars.DELETE("/:calendar_id/members/:user_id", memberHandler.RemoveCalendarMember)

			calendars.GET("/:calendar_id/invitations", invitationHandler.ListCalendarInvitations)
			calendars.POST("/:calendar_id/invitations", invitationHandler.InviteToCalendar)
		}

		events := api.Group("/events", middleware.AuthMiddleware(tokens))
		{
			events.GET("", eventHandler.List)
			events.POST("", eventHandler.Create)
			events.GET("/:event_id", eventHandler.Get)
			events.PATCH("/:event_id", eventHandler.Update)
			events.DELETE("/:event_id", eventHandler.Delete)

			events.GET("/:event_id/members", memberHandler.ListEventMembers)
			events.DELETE("/:event_id/members/:user_id", memberHandler.RemoveEventMember)

			events.GET("/:event_id/invitations", invitationHandler.ListEventInvitations)
			events.POST("/:event_id/invitations", invitationHandler.InviteToEvent)
		}

		invitations := api.Group("/invitations", middleware.AuthMiddleware(tokens))
		{
			invitations.GET("/calendars", invitationHandler.MyCalendarInvitations)
			invitations.GET("/calendars/token/:token", invitationHandler.ResolveCalendarInvitation)
			invitations.POST("/calendars/:invitation_id/accept", invitationHandler.AcceptCalendarInvitation)
			invitations.POST("/calendars/:invitation_id/decline", invitationHandler.DeclineCalendarInvitation)

			invitations.GET("/events", invitationHandler.MyEventInvitations)
			invitations.GET("/events/token/:token", invitationHandler.ResolveEventInvitation)
			invitations.POST("/events/:invitation_id/accept", invitationHandler.AcceptEventInvitation)
			invitations.POST("/events/:invitation_id/decline", invitationHandler.DeclineEventInvitation)
		}
	}

	return r
}
