package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/storefront/internal/auth"
	"github.com/Additional-Code/storefront/internal/dto"
	"github.com/Additional-Code/storefront/internal/presentation/http/response"
	service "github.com/Additional-Code/storefront/internal/service/order"
	"github.com/Additional-Code/storefront/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/storefront/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. Every route requires an
// authenticated user; staff-only routes are checked by the service.
func Register(e *echo.Echo, h *Handler, authn *auth.Authenticator) {
	g := e.Group("/orders", authn.RequireUser())
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.PATCH("/:id/cancel", h.cancel)
	g.PATCH("/:id/status", h.updateStatus)

	admin := e.Group("/admin/orders", authn.RequireUser())
	admin.GET("", h.listAll)
	admin.GET("/cancelled", h.listCancelled)
}

// list writes the caller's orders as a bare JSON array. Query failures are
// handed to the echo error handler untouched.
func (h *Handler) list(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return response.New(c).WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list", trace.WithAttributes(attribute.Int64("user.id", user.ID)))
	defer span.End()

	orders, err := h.svc.List(ctx, user)
	if err != nil {
		return err
	}

	return response.New(c).Bare().WithData(dto.NewOrderListResponse(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c).Bare()

	user, ok := auth.CurrentUser(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, user, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c).Bare()

	user, ok := auth.CurrentUser(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	var payload struct {
		ShippingName       string `json:"shipping_name"`
		ShippingEmail      string `json:"shipping_email"`
		ShippingPhone      string `json:"shipping_phone"`
		ShippingPostalCode string `json:"shipping_postal_code"`
		ShippingPrefecture string `json:"shipping_prefecture"`
		ShippingCity       string `json:"shipping_city"`
		ShippingAddress    string `json:"shipping_address"`
		Notes              string `json:"notes"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	span.SetAttributes(attribute.Int64("user.id", user.ID))
	defer span.End()

	order, err := h.svc.Create(ctx, user, service.CreateInput{
		ShippingName:       payload.ShippingName,
		ShippingEmail:      payload.ShippingEmail,
		ShippingPhone:      payload.ShippingPhone,
		ShippingPostalCode: payload.ShippingPostalCode,
		ShippingPrefecture: payload.ShippingPrefecture,
		ShippingCity:       payload.ShippingCity,
		ShippingAddress:    payload.ShippingAddress,
		Notes:              payload.Notes,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c).Bare()

	user, ok := auth.CurrentUser(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.cancel", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Cancel(ctx, user, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c).Bare()

	user, ok := auth.CurrentUser(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Status          string `json:"status"`
		AssignedSalesID *int64 `json:"assigned_sales_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", payload.Status),
	))
	defer span.End()

	order, err := h.svc.UpdateStatus(ctx, user, id, service.UpdateStatusInput{
		Status:          payload.Status,
		AssignedSalesID: payload.AssignedSalesID,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderResponse(order)).Build()
}

// listAll writes every order, newest first. ?status= narrows the result.
func (h *Handler) listAll(c echo.Context) error {
	b := response.New(c).Bare()

	user, ok := auth.CurrentUser(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	status := c.QueryParam("status")
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listAll", trace.WithAttributes(attribute.String("order.status", status)))
	defer span.End()

	orders, err := h.svc.ListAll(ctx, user, status)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderListResponse(orders)).Build()
}

func (h *Handler) listCancelled(c echo.Context) error {
	b := response.New(c).Bare()

	user, ok := auth.CurrentUser(c)
	if !ok {
		return b.WithError(errorbank.Unauthorized("authentication required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listCancelled")
	defer span.End()

	orders, err := h.svc.ListCancelled(ctx, user)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderListResponse(orders)).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}
