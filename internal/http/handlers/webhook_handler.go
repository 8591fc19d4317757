// WhatsApp webhook handler.
//
// Twilio posts inbound WhatsApp messages as application/x-www-form-urlencoded
// with the standard webhook parameters (From, Body, MessageSid, ProfileName).
// The response protocol is deliberate: the webhook ALWAYS acknowledges with an
// empty TwiML document and HTTP 200, whatever happened while routing the
// message. Returning an error status would make Twilio retry and re-deliver,
// and outbound replies are sent asynchronously through the REST API anyway.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atendezap/go-whats-backend/internal/http/middleware"
)

// emptyTwiML is the no-op TwiML acknowledgment body.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// WhatsAppWebhook ingests an inbound customer message. Routing errors are
// logged with the request context but never surfaced to the transport.
func (h *Handlers) WhatsAppWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	from := c.PostForm("From")
	body := c.PostForm("Body")
	messageSID := c.PostForm("MessageSid")
	profileName := c.PostForm("ProfileName")

	if from != "" {
		if err := h.convSvc.HandleInbound(ctx, from, body, messageSID, profileName); err != nil {
			middleware.LoggerFrom(c).Error().
				Err(err).
				Str("message_sid", messageSID).
				Msg("inbound message routing failed")
		}
	} else {
		middleware.LoggerFrom(c).Warn().Msg("webhook payload missing From parameter")
	}

	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(emptyTwiML))
}
