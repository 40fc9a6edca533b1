// WhatsApp webhook HTTP handlers.
//
// This file exposes the provider-facing endpoints:
//   - GET  /webhook/whatsapp  (subscription verification handshake)
//   - POST /webhook/whatsapp  (event delivery)
//
// Deliveries are acknowledged with 200 before any processing: the body is
// normalized and handed to the EventDispatcher, which runs the conversation
// in the background. Unparseable or status-only payloads are acknowledged
// and dropped. The only rejection is a bad X-Hub-Signature-256 when an app
// secret is configured.
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/whatsapp-storefront/internal/http/middleware"
	"github.com/tbourn/whatsapp-storefront/internal/observability"
	"github.com/tbourn/whatsapp-storefront/internal/sysutil"
	"github.com/tbourn/whatsapp-storefront/internal/whatsapp"
)

// webhookAck is the body returned for accepted deliveries.
const webhookAck = "EVENT_RECEIVED"

// VerifyWebhook godoc
// @ID          verifyWebhook
// @Summary     Webhook verification handshake
// @Description Echoes hub.challenge when hub.mode is "subscribe" and hub.verify_token matches the configured token.
// @Description Un-prefixed mode, verify_token and challenge are accepted too.
// @Tags        Webhook
// @Produce     plain
//
// @Param       hub.mode          query  string  false  "Subscription mode"  example(subscribe)
// @Param       hub.verify_token  query  string  false  "Verification token"
// @Param       hub.challenge     query  string  false  "Challenge to echo; required"
//
// @Success     200  {string}  string                  "The challenge"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing parameters"
// @Failure     403  {object}  handlers.ErrorResponse  "Token mismatch"
// @Router      /webhook/whatsapp [get]
func (h *Handlers) VerifyWebhook(c *gin.Context) {
	mode := sysutil.FirstNonEmpty(c.Query("hub.mode"), c.Query("mode"))
	token := sysutil.FirstNonEmpty(c.Query("hub.verify_token"), c.Query("verify_token"))
	challenge := sysutil.FirstNonEmpty(c.Query("hub.challenge"), c.Query("challenge"))

	if mode == "" || token == "" || challenge == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode, verify_token and challenge are required")
		return
	}
	if mode != "subscribe" || h.webhook.VerifyToken == "" || token != h.webhook.VerifyToken {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Str("mode", mode).Msg("webhook verification rejected")
		fail(c, http.StatusForbidden, ErrCodeForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// ReceiveWebhook godoc
// @ID          receiveWebhook
// @Summary     Webhook event delivery
// @Description Acknowledges the delivery immediately and processes its messages in the background.
// @Tags        Webhook
// @Accept      json
// @Produce     plain
//
// @Param       X-Hub-Signature-256  header  string  false  "sha256=<hex HMAC of the body>; required when an app secret is configured"
// @Param       body                 body    whatsapp.Envelope  true  "Webhook envelope"
//
// @Success     200  {string}  string                  "EVENT_RECEIVED"
// @Failure     401  {object}  handlers.ErrorResponse  "Bad signature"
// @Router      /webhook/whatsapp [post]
func (h *Handlers) ReceiveWebhook(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		lg.Warn().Err(err).Msg("webhook body unreadable")
		observability.RecordWebhookEvent(observability.OutcomeIgnored)
		c.String(http.StatusOK, webhookAck)
		return
	}

	if h.webhook.AppSecret != "" &&
		!whatsapp.VerifySignature(h.webhook.AppSecret, body, c.GetHeader(whatsapp.SignatureHeader)) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid signature")
		return
	}

	events, err := whatsapp.Normalize(body)
	if err != nil {
		lg.Warn().Err(err).Int("bytes", len(body)).Msg("webhook body is not JSON")
		observability.RecordWebhookEvent(observability.OutcomeIgnored)
		c.String(http.StatusOK, webhookAck)
		return
	}
	if len(events) == 0 {
		observability.RecordWebhookEvent(observability.OutcomeIgnored)
		c.String(http.StatusOK, webhookAck)
		return
	}

	// Acknowledge first; processing continues after the response.
	c.String(http.StatusOK, webhookAck)
	if h.dispatcher == nil {
		lg.Error().Int("events", len(events)).Msg("webhook dispatcher not configured")
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)
}
