package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common careslot workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("book_appointment").
		Description("Walk through holding a slot and finishing the booking before the hold lapses.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Book an appointment",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me book a telehealth appointment.

1. Ask which professional, specialty, date and time I want if I have not said.
2. Hold the slot with slot.reserve. If it fails because the professional is
   unavailable that day, suggest another date.
3. Tell me how long the hold lasts (slot.current shows the seconds left).
4. If I change my mind, release the hold with slot.release.

Only one slot is held at a time; reserving another replaces the first.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("plan_time_off").
		Description("Request schedule blocks for time off without colliding with existing ones.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Plan time off",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me block time off in my schedule.

1. Read careslot://blocks to see what I already blocked.
2. For each day or range I name, run block.check_conflict first.
3. Request the non-conflicting ones with block.request and a short reason.
4. Summarize which requests are pending approval.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("review_pending_blocks").
		Description("Review a professional's pending schedule blocks and decide each one.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			professional := args["professional_id"]
			if professional == "" {
				professional = "the configured professional"
			}
			return &mcp.PromptResult{
				Description: "Review pending blocks",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`List the pending schedule blocks of %s with block.list (status "pending").
For each one, show the period and reason, then ask me whether to approve
(block.approve) or reject (block.reject, with a reason). Blocks whose last
day has passed expire on their own and need no decision.`, professional),
						},
					},
				},
			}, nil
		})

	return nil
}
