package httpapi

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendbot/internal/attendance"
	"attendbot/internal/auth"
	"attendbot/internal/bot"
	"attendbot/internal/export"
)

type handler struct {
	deps Deps
	log  *zap.Logger
}

func (h *handler) healthz(c *gin.Context) {
	ctx := c.Request.Context()
	dbHealthy := h.deps.DB != nil && h.deps.DB.Healthy(ctx)
	body := gin.H{"db": dbHealthy}
	healthy := dbHealthy
	if h.deps.Redis != nil {
		redisHealthy := h.deps.Redis.Healthy(ctx)
		body["redis"] = redisHealthy
		healthy = healthy && redisHealthy
	}

	status := http.StatusOK
	body["status"] = "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

func (h *handler) interactions(c *gin.Context) {
	if len(h.deps.PublicKey) != ed25519.PublicKeySize || h.deps.Dispatcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "interactions endpoint not configured"})
		return
	}
	if !discordgo.VerifyInteraction(c.Request, h.deps.PublicKey) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid request signature"})
		return
	}

	var in discordgo.Interaction
	if err := json.NewDecoder(c.Request.Body).Decode(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed interaction"})
		return
	}
	if in.Type == discordgo.InteractionPing {
		c.JSON(http.StatusOK, discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})
		return
	}

	h.deps.Dispatcher.Serve(c.Request.Context(), &in, httpResponder{w: c.Writer, fallback: h.deps.FollowUp})
}

// httpResponder writes the reply as the HTTP response body.
type httpResponder struct {
	w        http.ResponseWriter
	fallback bot.Responder
}

func (r httpResponder) Respond(_ context.Context, _ *discordgo.Interaction, reply *discordgo.InteractionResponseData) error {
	body, err := json.Marshal(discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: reply,
	})
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	r.w.Header().Set("Content-Type", "application/json")
	r.w.WriteHeader(http.StatusOK)
	_, err = r.w.Write(body)
	return err
}

func (r httpResponder) FollowUp(ctx context.Context, i *discordgo.Interaction, reply *discordgo.InteractionResponseData) error {
	if r.fallback == nil {
		return errors.New("no follow-up channel configured")
	}
	return r.fallback.FollowUp(ctx, i, reply)
}

func (h *handler) listRecords(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown caller"})
		return
	}

	var req attendance.ListRequest
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a whole number"})
			return
		}
		req.Limit = &limit
	}

	out := h.deps.Service.ListRecent(c.Request.Context(), caller, req)
	switch out.Kind {
	case attendance.OutcomeSuccess:
		c.JSON(http.StatusOK, gin.H{"records": out.Records})
	case attendance.OutcomeEmpty:
		c.JSON(http.StatusOK, gin.H{"records": []attendance.Record{}})
	case attendance.OutcomeInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": out.Message})
	default:
		h.log.Error("list records failed", zap.String("owner_id", caller.ID), zap.Error(out.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load records"})
	}
}

func (h *handler) exportRecords(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown caller"})
		return
	}

	records, err := h.deps.Records.ListRecentByOwner(c.Request.Context(), caller.ID, h.deps.ExportLimit)
	if err != nil {
		h.log.Error("export query failed", zap.String("owner_id", caller.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load records"})
		return
	}

	buf, err := export.Workbook(records)
	if err != nil {
		h.log.Error("export encode failed", zap.String("owner_id", caller.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build export"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename(time.Now())))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
