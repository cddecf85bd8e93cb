package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/journeydynamics/backend/api/transport"
	"github.com/journeydynamics/backend/domain"
	"github.com/journeydynamics/backend/journey"
	"github.com/journeydynamics/backend/pkg/httpcontext"
	"github.com/journeydynamics/backend/query"
	"github.com/journeydynamics/backend/usecase"
)

// JourneyHandler exposes the journey command and query surface over HTTP.
type JourneyHandler struct {
	baseHandler
	bus   *usecase.CommandBus
	query *query.Query
}

// NewJourneyHandler constructs a JourneyHandler.
func NewJourneyHandler(bus *usecase.CommandBus, q *query.Query, adapter *httpcontext.Adapter, logger *zap.Logger) *JourneyHandler {
	return &JourneyHandler{
		baseHandler: newBaseHandler(adapter, logger),
		bus:         bus,
		query:       q,
	}
}

// Create starts a new journey. If the request body omits an id, one is
// generated.
func (h *JourneyHandler) Create(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.StartRequest
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			h.respondError(ctx, domain.ErrInvalidPayload)
			return
		}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	state, err := h.bus.Dispatch(stdCtx, req.ID, journey.Start{ID: req.ID})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.Set("Location", "/journeys/"+req.ID)
	h.respondSuccess(ctx, http.StatusCreated, state)
}

// Command applies a Capture, CapturePerson, or Complete command to an
// existing journey, discriminated by the request body's "type" field.
func (h *JourneyHandler) Command(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.CommandRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	cmd, err := buildCommand(req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if _, err := h.bus.Dispatch(stdCtx, id, cmd); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

func buildCommand(req transport.CommandRequest) (journey.Command, error) {
	switch req.Type {
	case "Capture":
		return journey.Capture{Step: req.Step, Data: req.Data}, nil
	case "CapturePerson":
		return journey.CapturePerson{Name: req.Name, Email: req.Email, Phone: req.Phone}, nil
	case "Complete":
		return journey.Complete{}, nil
	default:
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown command type: "+req.Type)
	}
}

// Get returns the merged read model for one journey.
func (h *JourneyHandler) Get(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.query.JourneyByID(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// FindByEmail returns every journey associated with an email address.
func (h *JourneyHandler) FindByEmail(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	email := string(ctx.QueryArgs().Peek("email"))
	if email == "" {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return
	}

	views, err := h.query.FindByEmail(stdCtx, email)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, views)
}

// History returns the per-step data-capture audit trail for a journey.
func (h *JourneyHandler) History(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.query.DataCaptureHistory(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, entries)
}
