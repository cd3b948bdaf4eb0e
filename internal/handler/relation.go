package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/internal/model"
	"github.com/vidtube/backend/internal/service"
)

type RelationHandler struct {
	svc *service.RelationService
}

func NewRelationHandler(svc *service.RelationService) *RelationHandler {
	return &RelationHandler{svc: svc}
}

// ToggleVideoLike godoc
// @Summary Toggle like on a video
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param videoId path string true "Video ID"
// @Success 200 {object} model.ToggleResponse
// @Success 201 {object} model.ToggleResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/v1/likes/toggle/v/{videoId} [post]
func (h *RelationHandler) ToggleVideoLike(c *gin.Context) {
	h.toggle(c, c.Param("videoId"), model.KindVideoLike)
}

// ToggleCommentLike godoc
// @Summary Toggle like on a comment
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param commentId path string true "Comment ID"
// @Success 200 {object} model.ToggleResponse
// @Success 201 {object} model.ToggleResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/likes/toggle/c/{commentId} [post]
func (h *RelationHandler) ToggleCommentLike(c *gin.Context) {
	h.toggle(c, c.Param("commentId"), model.KindCommentLike)
}

// ToggleTweetLike godoc
// @Summary Toggle like on a tweet
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param tweetId path string true "Tweet ID"
// @Success 200 {object} model.ToggleResponse
// @Success 201 {object} model.ToggleResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/likes/toggle/t/{tweetId} [post]
func (h *RelationHandler) ToggleTweetLike(c *gin.Context) {
	h.toggle(c, c.Param("tweetId"), model.KindTweetLike)
}

// ToggleSubscription godoc
// @Summary Subscribe to or unsubscribe from a channel
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param channelId path string true "Channel (user) ID"
// @Success 200 {object} model.ToggleResponse
// @Success 201 {object} model.ToggleResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/v1/subscriptions/c/{channelId} [post]
func (h *RelationHandler) ToggleSubscription(c *gin.Context) {
	h.toggle(c, c.Param("channelId"), model.KindSubscription)
}

// LikedVideos godoc
// @Summary List videos liked by the caller
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} model.RelationPage
// @Router /api/v1/likes/videos [get]
func (h *RelationHandler) LikedVideos(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	h.page(c, func(cursor string, limit int) (*model.RelationPage, error) {
		return h.svc.LikedVideos(c.Request.Context(), user.ID, cursor, limit)
	})
}

// ChannelSubscribers godoc
// @Summary List subscribers of a channel
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param channelId path string true "Channel (user) ID"
// @Success 200 {object} model.RelationPage
// @Router /api/v1/subscriptions/c/{channelId} [get]
func (h *RelationHandler) ChannelSubscribers(c *gin.Context) {
	channelID := c.Param("channelId")
	h.page(c, func(cursor string, limit int) (*model.RelationPage, error) {
		return h.svc.ChannelSubscribers(c.Request.Context(), channelID, cursor, limit)
	})
}

// SubscribedChannels godoc
// @Summary List channels a user subscribes to
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Param subscriberId path string true "Subscriber (user) ID"
// @Success 200 {object} model.RelationPage
// @Router /api/v1/subscriptions/u/{subscriberId} [get]
func (h *RelationHandler) SubscribedChannels(c *gin.Context) {
	subscriberID := c.Param("subscriberId")
	h.page(c, func(cursor string, limit int) (*model.RelationPage, error) {
		return h.svc.SubscribedChannels(c.Request.Context(), subscriberID, cursor, limit)
	})
}

func (h *RelationHandler) toggle(c *gin.Context, targetID string, kind model.RelationKind) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}

	result, err := h.svc.Toggle(c.Request.Context(), user.ID, targetID, kind)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if result.Active {
		status = http.StatusCreated
	}
	c.JSON(status, model.ToggleResponse{Status: "success", Kind: kind, Active: result.Active})
}

func (h *RelationHandler) page(c *gin.Context, fetch func(cursor string, limit int) (*model.RelationPage, error)) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	page, err := fetch(c.Query("cursor"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
