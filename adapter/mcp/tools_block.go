package mcp

import (
	"context"

	"github.com/felixgeelhaar/careslot/adapter/cli"
	"github.com/felixgeelhaar/careslot/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type blockRequestInput struct {
	ProfessionalID string `json:"professional_id,omitempty"`
	Date           string `json:"date,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

type blockUpdateInput struct {
	BlockID   string `json:"block_id" jsonschema:"required"`
	Date      string `json:"date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type blockListInput struct {
	ProfessionalID string `json:"professional_id,omitempty"`
	Status         string `json:"status,omitempty"`
}

type blockIDInput struct {
	BlockID string `json:"block_id" jsonschema:"required"`
}

type blockCheckInput struct {
	ProfessionalID string `json:"professional_id,omitempty"`
	Date           string `json:"date,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	ExcludeBlockID string `json:"exclude_block_id,omitempty"`
}

type blockApproveInput struct {
	BlockID      string `json:"block_id" jsonschema:"required"`
	ApproverName string `json:"approver_name,omitempty"`
}

type blockRejectInput struct {
	BlockID      string `json:"block_id" jsonschema:"required"`
	ApproverName string `json:"approver_name,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type blockCheckOutput struct {
	HasConflict bool `json:"has_conflict"`
}

type blockDeleteOutput struct {
	Deleted string `json:"deleted"`
}

func registerBlockTools(srv *mcp.Server, deps ToolDependencies) {
	app := deps.App

	srv.Tool("block.request").
		Description("Request a schedule block for one date or an inclusive date range. It stays pending until approved.").
		Handler(func(ctx context.Context, input blockRequestInput) (*queries.BlockDTO, error) {
			return requestBlock(ctx, app, input)
		})

	srv.Tool("block.update").
		Description("Change the period or reason of a pending schedule block").
		Handler(func(ctx context.Context, input blockUpdateInput) (*queries.BlockDTO, error) {
			return updateBlock(ctx, app, input)
		})

	srv.Tool("block.list").
		Description("List a professional's schedule blocks, optionally by status").
		Handler(func(ctx context.Context, input blockListInput) ([]queries.BlockDTO, error) {
			return listBlocks(ctx, app, input)
		})

	srv.Tool("block.get").
		Description("Get one schedule block").
		Handler(func(ctx context.Context, input blockIDInput) (*queries.BlockDTO, error) {
			if app.Blocks == nil {
				return nil, errNotConfigured
			}
			id, err := parseUUID(input.BlockID)
			if err != nil {
				return nil, err
			}
			return app.Blocks.Get(ctx, id)
		})

	srv.Tool("block.check_conflict").
		Description("Check whether a period overlaps a pending or approved block").
		Handler(func(ctx context.Context, input blockCheckInput) (blockCheckOutput, error) {
			return checkBlockConflict(ctx, app, input)
		})

	srv.Tool("block.approve").
		Description("Approve a pending schedule block (administrators and assistants)").
		Handler(func(ctx context.Context, input blockApproveInput) (*queries.BlockDTO, error) {
			if app.Blocks == nil {
				return nil, errNotConfigured
			}
			id, err := parseUUID(input.BlockID)
			if err != nil {
				return nil, err
			}
			return app.Blocks.Approve(ctx, id, input.ApproverName)
		})

	srv.Tool("block.reject").
		Description("Reject a pending schedule block (administrators and assistants)").
		Handler(func(ctx context.Context, input blockRejectInput) (*queries.BlockDTO, error) {
			if app.Blocks == nil {
				return nil, errNotConfigured
			}
			id, err := parseUUID(input.BlockID)
			if err != nil {
				return nil, err
			}
			return app.Blocks.Reject(ctx, id, input.ApproverName, input.Reason)
		})

	srv.Tool("block.delete").
		Description("Delete a schedule block. Decided blocks can only be deleted by an administrator.").
		Handler(func(ctx context.Context, input blockIDInput) (blockDeleteOutput, error) {
			if app.Blocks == nil {
				return blockDeleteOutput{}, errNotConfigured
			}
			id, err := parseUUID(input.BlockID)
			if err != nil {
				return blockDeleteOutput{}, err
			}
			if err := app.Blocks.Delete(ctx, id); err != nil {
				return blockDeleteOutput{}, err
			}
			return blockDeleteOutput{Deleted: id.String()}, nil
		})
}

func requestBlock(ctx context.Context, app *cli.App, input blockRequestInput) (*queries.BlockDTO, error) {
	if app.Blocks == nil {
		return nil, errNotConfigured
	}
	period, err := domain.ParsePeriod(input.Date, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	return app.Blocks.Request(ctx, orDefault(input.ProfessionalID, app.UserID), period, input.Reason)
}

func updateBlock(ctx context.Context, app *cli.App, input blockUpdateInput) (*queries.BlockDTO, error) {
	if app.Blocks == nil {
		return nil, errNotConfigured
	}
	id, err := parseUUID(input.BlockID)
	if err != nil {
		return nil, err
	}
	period, err := domain.ParsePeriod(input.Date, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	return app.Blocks.Update(ctx, id, period, input.Reason)
}

func listBlocks(ctx context.Context, app *cli.App, input blockListInput) ([]queries.BlockDTO, error) {
	if app.Blocks == nil {
		return nil, errNotConfigured
	}
	status, err := parseOptionalStatus(input.Status)
	if err != nil {
		return nil, err
	}
	blocks, err := app.Blocks.List(ctx, orDefault(input.ProfessionalID, app.UserID), status)
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []queries.BlockDTO{}
	}
	return blocks, nil
}

func checkBlockConflict(ctx context.Context, app *cli.App, input blockCheckInput) (blockCheckOutput, error) {
	if app.Blocks == nil {
		return blockCheckOutput{}, errNotConfigured
	}
	period, err := domain.ParsePeriod(input.Date, input.StartDate, input.EndDate)
	if err != nil {
		return blockCheckOutput{}, err
	}
	exclude, err := parseOptionalUUID(input.ExcludeBlockID)
	if err != nil {
		return blockCheckOutput{}, err
	}
	conflict, err := app.Blocks.CheckConflict(ctx, orDefault(input.ProfessionalID, app.UserID), period, exclude)
	if err != nil {
		return blockCheckOutput{}, err
	}
	return blockCheckOutput{HasConflict: conflict}, nil
}
