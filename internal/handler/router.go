package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/service"
)

type RouterDeps struct {
	Auth            *service.AuthService
	Relations       *service.RelationService
	Media           *service.MediaService
	Metrics         *metrics.Metrics
	Log             *slog.Logger
	CORSOrigins     []string
	CORSCredentials bool
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 4 << 20
	router.Use(gin.Recovery(), RequestLogger(deps.Log), CORSMiddleware(deps.CORSOrigins, deps.CORSCredentials))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	authHandler := NewAuthHandler(deps.Auth)
	relationHandler := NewRelationHandler(deps.Relations)
	requireAuth := AuthMiddleware(deps.Auth)

	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.POST("/refresh-token", authHandler.Refresh)

	secured := users.Group("", requireAuth)
	secured.POST("/logout", authHandler.Logout)
	secured.POST("/change-password", authHandler.ChangePassword)
	secured.GET("/current-user", authHandler.Me)
	secured.PATCH("/update-account", authHandler.UpdateAccount)
	if deps.Media != nil {
		mediaHandler := NewMediaHandler(deps.Media)
		secured.PATCH("/avatar", mediaHandler.UpdateAvatar)
		secured.PATCH("/cover-image", mediaHandler.UpdateCover)
	}

	likes := v1.Group("/likes", requireAuth)
	likes.POST("/toggle/v/:videoId", relationHandler.ToggleVideoLike)
	likes.POST("/toggle/c/:commentId", relationHandler.ToggleCommentLike)
	likes.POST("/toggle/t/:tweetId", relationHandler.ToggleTweetLike)
	likes.GET("/videos", relationHandler.LikedVideos)

	subscriptions := v1.Group("/subscriptions", requireAuth)
	subscriptions.POST("/c/:channelId", relationHandler.ToggleSubscription)
	subscriptions.GET("/c/:channelId", relationHandler.ChannelSubscribers)
	subscriptions.GET("/u/:subscriberId", relationHandler.SubscribedChannels)

	return router
}
