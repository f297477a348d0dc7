package payment

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pseudosapiens/phrase-api/internal/handler"
	"github.com/pseudosapiens/phrase-api/internal/model"
	paymentService "github.com/pseudosapiens/phrase-api/internal/service/payment"
	"github.com/pseudosapiens/phrase-api/pkg/metrics"
)

type Handler struct {
	service *paymentService.Service
	metrics *metrics.Metrics
}

func NewHandler(service *paymentService.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/izipay", h.IzipayWebhook)
		webhooks.POST("/mercadopago", h.MercadoPagoWebhook)
	}
}

// IzipayWebhook handles form-encoded vads_* notifications. The HMAC is
// computed over the raw body, so it is read before any parsing.
func (h *Handler) IzipayWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unreadable body"))
		return
	}

	signature := c.GetHeader("X-Izipay-Signature")
	if signature == "" {
		signature = c.Query("signature")
	}
	if !h.service.VerifySignature(body, signature) {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid signature"))
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("malformed payload"))
		return
	}

	status, known := izipayStatus(form.Get("vads_trans_status"))
	if !known {
		// Intermediate statuses (pending, capture in progress) are
		// acknowledged so the provider stops retrying.
		c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"ignored": true}))
		return
	}

	amount, _ := strconv.ParseInt(form.Get("vads_amount"), 10, 64)
	n := &paymentService.Notification{
		Provider:      model.PaymentProviderIzipay,
		TransactionID: form.Get("vads_trans_uuid"),
		OrderID:       form.Get("vads_order_id"),
		Email:         form.Get("vads_cust_email"),
		AmountCents:   amount,
		Currency:      form.Get("vads_currency"),
		Status:        status,
		RawPayload:    body,
	}

	h.metrics.PaymentsReceived.WithLabelValues(string(n.Provider), string(status)).Inc()

	if err := h.service.Process(c.Request.Context(), n); err != nil {
		h.metrics.ActivationErrors.Inc()
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"processed": true}))
}

func izipayStatus(s string) (model.PaymentStatus, bool) {
	switch s {
	case "AUTHORISED":
		return model.PaymentStatusAuthorised, true
	case "REFUSED":
		return model.PaymentStatusRefused, true
	case "CANCELLED":
		return model.PaymentStatusCancelled, true
	default:
		return "", false
	}
}

type mercadoPagoNotification struct {
	ID     string  `json:"id" binding:"required"`
	Status string  `json:"status" binding:"required"`
	Order  string  `json:"external_reference" binding:"required"`
	Email  string  `json:"payer_email"`
	Amount float64 `json:"transaction_amount"`
}

func (h *Handler) MercadoPagoWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unreadable body"))
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var req mercadoPagoNotification
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	status := model.PaymentStatusRefused
	if req.Status == "approved" {
		status = model.PaymentStatusAuthorised
	}

	n := &paymentService.Notification{
		Provider:      model.PaymentProviderMercadoPago,
		TransactionID: req.ID,
		OrderID:       req.Order,
		Email:         req.Email,
		AmountCents:   toCents(req.Amount),
		Currency:      "PEN",
		Status:        status,
		RawPayload:    body,
	}

	h.metrics.PaymentsReceived.WithLabelValues(string(n.Provider), string(status)).Inc()

	if err := h.service.Process(c.Request.Context(), n); err != nil {
		h.metrics.ActivationErrors.Inc()
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"processed": true}))
}

// toCents converts a decimal currency amount to integer cents. A plain
// cast truncates, so 10.55 would land as 1054.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
