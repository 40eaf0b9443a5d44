package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"worker-recording/dto"
	eventHandler "worker-recording/handler"
	"worker-recording/service"
)

// Webhook payloads are validated strictly at the boundary; only fully-formed
// dto values reach the tracker and the pipeline.
type conferenceEventRequest struct {
	Event                string `json:"event" binding:"required,oneof=join leave"`
	ConferenceInstanceId string `json:"conferenceInstanceId" binding:"required"`
	CallId               string `json:"callId" binding:"required"`
	PhoneNumber          string `json:"phoneNumber"`
}

type recordingReadyRequest struct {
	ProviderRecordingId  string `json:"providerRecordingId" binding:"required"`
	MediaURL             string `json:"mediaUrl" binding:"required,url"`
	ConferenceInstanceId string `json:"conferenceInstanceId"`
	OriginatingCallId    string `json:"originatingCallId"`
	DurationSeconds      *int   `json:"durationSeconds" binding:"omitempty,gte=0"`
	Track                string `json:"track"`
	Source               string `json:"source"`
}

func addWebhooks(appCtx context.Context, r *gin.Engine, deps eventHandler.ServiceDependencies) {
	r.POST("/webhooks/conference", func(c *gin.Context) {
		var req conferenceEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed conference event"})
			return
		}

		if dto.ConferenceEventKind(req.Event) == dto.ConferenceEventLeave {
			deps.Tracker.RecordLeave(req.ConferenceInstanceId, req.CallId)
		} else {
			deps.Tracker.RecordJoin(req.ConferenceInstanceId, req.CallId, req.PhoneNumber)
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/webhooks/recording", func(c *gin.Context) {
		var req recordingReadyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed recording notification"})
			return
		}

		ctx := zerolog.Ctx(appCtx).WithContext(c.Request.Context())
		err := deps.IngestService.Ingest(ctx, dto.RecordingNotification{
			ProviderRecordingId:  req.ProviderRecordingId,
			MediaURL:             req.MediaURL,
			ConferenceInstanceId: req.ConferenceInstanceId,
			OriginatingCallId:    req.OriginatingCallId,
			DurationSeconds:      req.DurationSeconds,
			Track:                req.Track,
			Source:               req.Source,
		})
		if err != nil {
			if errors.Is(err, service.ErrNonRetryable) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed recording notification"})
				return
			}
			// Retryable: the provider's redelivery policy re-invokes us and
			// dedup makes the later attempt exactly-once-effective.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
