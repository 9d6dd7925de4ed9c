package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/careslot/adapter/cli"
	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose careslot data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("careslot://holds").
		Name("Held slots").
		Description("Slots the current user holds on the server").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			held, err := listSlots(ctx, app)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, held)
		})

	srv.Resource("careslot://reservation/current").
		Name("Current reservation").
		Description("The slot held by this session and its countdown").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			cur, err := currentSlot(app)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, cur)
		})

	srv.Resource("careslot://blocks").
		Name("Schedule blocks").
		Description("All schedule blocks of the configured professional").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			blocks, err := listBlocks(ctx, app, blockListInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, blocks)
		})

	srv.Resource("careslot://blocks/pending").
		Name("Pending schedule blocks").
		Description("Schedule blocks of the configured professional awaiting a decision").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			blocks, err := listBlocks(ctx, app, blockListInput{Status: domain.StatusPending.String()})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, blocks)
		})

	srv.Resource("careslot://system/version").
		Name("Version").
		Description("careslot build information").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonResource(uri, struct {
				cli.BuildInfo
				UserID string `json:"userId"`
			}{cli.CurrentBuild(), app.UserID})
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
