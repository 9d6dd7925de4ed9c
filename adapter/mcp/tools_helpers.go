package mcp

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func parseOptionalUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	return parseUUID(value)
}

func parseOptionalStatus(value string) (domain.BlockStatus, error) {
	if value == "" {
		return "", nil
	}
	return domain.ParseBlockStatus(value)
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
