package api

import (
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/careslot/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/careslot/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/careslot/pkg/observability"
	"github.com/google/uuid"
)

// BlockHandler serves /scheduleblocks.
type BlockHandler struct {
	request       *commands.RequestBlockHandler
	update        *commands.UpdateBlockHandler
	approve       *commands.ApproveBlockHandler
	reject        *commands.RejectBlockHandler
	remove        *commands.DeleteBlockHandler
	checkConflict *queries.CheckConflictHandler
	list          *queries.ListBlocksHandler
	get           *queries.GetBlockHandler
	metrics       observability.Metrics
	logger        *slog.Logger
}

// BlockHandlerConfig holds dependencies for the block handler.
type BlockHandlerConfig struct {
	Request       *commands.RequestBlockHandler
	Update        *commands.UpdateBlockHandler
	Approve       *commands.ApproveBlockHandler
	Reject        *commands.RejectBlockHandler
	Delete        *commands.DeleteBlockHandler
	CheckConflict *queries.CheckConflictHandler
	List          *queries.ListBlocksHandler
	Get           *queries.GetBlockHandler
	Metrics       observability.Metrics
	Logger        *slog.Logger
}

// NewBlockHandler creates a block handler.
func NewBlockHandler(cfg BlockHandlerConfig) *BlockHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	return &BlockHandler{
		request:       cfg.Request,
		update:        cfg.Update,
		approve:       cfg.Approve,
		reject:        cfg.Reject,
		remove:        cfg.Delete,
		checkConflict: cfg.CheckConflict,
		list:          cfg.List,
		get:           cfg.Get,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

type blockRequest struct {
	ProfessionalID string `json:"professionalId"`
	Date           string `json:"date"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	Reason         string `json:"reason"`
}

type decisionRequest struct {
	ApproverName string `json:"approverName"`
	Reason       string `json:"reason"`
}

func pathBlockID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, badRequest("block id must be a UUID")
	}
	return id, nil
}

// CheckConflict handles GET /scheduleblocks/check-conflict
func (h *BlockHandler) CheckConflict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := domain.ParsePeriod(q.Get("date"), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeFailure(w, r, h.logger, "check conflict", err)
		return
	}

	query := queries.CheckConflictQuery{
		ProfessionalID: q.Get("professionalId"),
		Period:         period,
	}
	if raw := q.Get("excludeBlockId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeFailure(w, r, h.logger, "check conflict", badRequest("excludeBlockId must be a UUID"))
			return
		}
		query.ExcludeBlockID = id
	}

	result, err := h.checkConflict.Handle(r.Context(), query)
	if err != nil {
		writeFailure(w, r, h.logger, "check conflict", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// List handles GET /scheduleblocks
func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := queries.ListBlocksQuery{ProfessionalID: q.Get("professionalId")}
	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseBlockStatus(raw)
		if err != nil {
			writeFailure(w, r, h.logger, "list blocks", err)
			return
		}
		query.Status = status
	}
	if query.ProfessionalID == "" {
		if p, ok := PrincipalFromContext(r.Context()); ok && p.Role == RoleProfessional {
			query.ProfessionalID = p.UserID
		}
	}

	blocks, err := h.list.Handle(r.Context(), query)
	if err != nil {
		writeFailure(w, r, h.logger, "list blocks", err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

// Get handles GET /scheduleblocks/{id}
func (h *BlockHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathBlockID(r)
	if err != nil {
		writeFailure(w, r, h.logger, "get block", err)
		return
	}
	block, err := h.get.Handle(r.Context(), queries.GetBlockQuery{BlockID: id})
	if err != nil {
		writeFailure(w, r, h.logger, "get block", err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

// Request handles POST /scheduleblocks
func (h *BlockHandler) Request(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var body blockRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeFailure(w, r, h.logger, "request block", err)
		return
	}
	period, err := domain.ParsePeriod(body.Date, body.StartDate, body.EndDate)
	if err != nil {
		writeFailure(w, r, h.logger, "request block", err)
		return
	}

	professionalID := body.ProfessionalID
	if p.Role == RoleProfessional {
		if professionalID != "" && professionalID != p.UserID {
			writeFailure(w, r, h.logger, "request block", domain.ErrNotBlockOwner)
			return
		}
		professionalID = p.UserID
	}

	block, err := h.request.Handle(r.Context(), commands.RequestBlockCommand{
		ProfessionalID: professionalID,
		Period:         period,
		Reason:         body.Reason,
		RequestedBy:    p.UserID,
	})
	if err != nil {
		writeFailure(w, r, h.logger, "request block", err)
		return
	}
	h.metrics.Counter(observability.MetricBlocksRequested, 1, observability.T("kind", string(period.Kind())))
	writeJSON(w, http.StatusCreated, queries.ToBlockDTO(block))
}

// Update handles PATCH /scheduleblocks/{id}
func (h *BlockHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, err := pathBlockID(r)
	if err != nil {
		writeFailure(w, r, h.logger, "update block", err)
		return
	}
	var body blockRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeFailure(w, r, h.logger, "update block", err)
		return
	}
	period, err := domain.ParsePeriod(body.Date, body.StartDate, body.EndDate)
	if err != nil {
		writeFailure(w, r, h.logger, "update block", err)
		return
	}

	block, err := h.update.Handle(r.Context(), commands.UpdateBlockCommand{
		BlockID: id,
		ActorID: p.UserID,
		IsAdmin: p.IsAdmin(),
		Period:  period,
		Reason:  body.Reason,
	})
	if err != nil {
		writeFailure(w, r, h.logger, "update block", err)
		return
	}
	writeJSON(w, http.StatusOK, queries.ToBlockDTO(block))
}

// Approve handles PATCH /scheduleblocks/{id}/approve
func (h *BlockHandler) Approve(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, body, err := h.decision(w, r)
	if err != nil {
		writeFailure(w, r, h.logger, "approve block", err)
		return
	}
	block, err := h.approve.Handle(r.Context(), commands.ApproveBlockCommand{
		BlockID:      id,
		ApproverID:   p.UserID,
		ApproverName: approverName(body, p),
	})
	if err != nil {
		writeFailure(w, r, h.logger, "approve block", err)
		return
	}
	h.metrics.Counter(observability.MetricBlocksDecided, 1, observability.T("decision", "approved"))
	writeJSON(w, http.StatusOK, queries.ToBlockDTO(block))
}

// Reject handles PATCH /scheduleblocks/{id}/reject
func (h *BlockHandler) Reject(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, body, err := h.decision(w, r)
	if err != nil {
		writeFailure(w, r, h.logger, "reject block", err)
		return
	}
	block, err := h.reject.Handle(r.Context(), commands.RejectBlockCommand{
		BlockID:      id,
		ApproverID:   p.UserID,
		ApproverName: approverName(body, p),
		Reason:       body.Reason,
	})
	if err != nil {
		writeFailure(w, r, h.logger, "reject block", err)
		return
	}
	h.metrics.Counter(observability.MetricBlocksDecided, 1, observability.T("decision", "rejected"))
	writeJSON(w, http.StatusOK, queries.ToBlockDTO(block))
}

// Delete handles DELETE /scheduleblocks/{id}
func (h *BlockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	id, err := pathBlockID(r)
	if err != nil {
		writeFailure(w, r, h.logger, "delete block", err)
		return
	}
	err = h.remove.Handle(r.Context(), commands.DeleteBlockCommand{
		BlockID: id,
		ActorID: p.UserID,
		IsAdmin: p.IsAdmin(),
	})
	if err != nil {
		writeFailure(w, r, h.logger, "delete block", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decision reads the block id and the optional decision body.
func (h *BlockHandler) decision(w http.ResponseWriter, r *http.Request) (uuid.UUID, decisionRequest, error) {
	var body decisionRequest
	id, err := pathBlockID(r)
	if err != nil {
		return uuid.Nil, body, err
	}
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &body); err != nil {
			return uuid.Nil, body, err
		}
	}
	return id, body, nil
}

func approverName(body decisionRequest, p Principal) string {
	if body.ApproverName != "" {
		return body.ApproverName
	}
	return p.UserID
}
