package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ListBlocksQuery lists a professional's blocks, optionally by status and
// overlapping [From, To].
type ListBlocksQuery struct {
	ProfessionalID string
	Status         domain.BlockStatus
	From           time.Time
	To             time.Time
}

// ListBlocksHandler handles the ListBlocksQuery.
type ListBlocksHandler struct {
	repo domain.Repository
}

// NewListBlocksHandler creates a new ListBlocksHandler.
func NewListBlocksHandler(repo domain.Repository) *ListBlocksHandler {
	return &ListBlocksHandler{repo: repo}
}

// Handle executes the ListBlocksQuery.
func (h *ListBlocksHandler) Handle(ctx context.Context, query ListBlocksQuery) ([]BlockDTO, error) {
	if query.ProfessionalID == "" {
		return nil, domain.ErrProfessionalRequired
	}
	if query.Status != "" && !query.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	blocks, err := h.repo.FindByProfessional(ctx, query.ProfessionalID, domain.BlockFilter{
		Status: query.Status,
		From:   query.From,
		To:     query.To,
	})
	if err != nil {
		return nil, err
	}
	return ToBlockDTOs(blocks), nil
}

// GetBlockQuery fetches one block.
type GetBlockQuery struct {
	BlockID uuid.UUID
}

// GetBlockHandler handles the GetBlockQuery.
type GetBlockHandler struct {
	repo domain.Repository
}

// NewGetBlockHandler creates a new GetBlockHandler.
func NewGetBlockHandler(repo domain.Repository) *GetBlockHandler {
	return &GetBlockHandler{repo: repo}
}

// Handle executes the GetBlockQuery.
func (h *GetBlockHandler) Handle(ctx context.Context, query GetBlockQuery) (*BlockDTO, error) {
	block, err := h.repo.FindByID(ctx, query.BlockID)
	if err != nil {
		return nil, err
	}
	dto := ToBlockDTO(block)
	return &dto, nil
}
