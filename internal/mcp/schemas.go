package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// verifyTagTool returns the tool definition for verify_tag
func verifyTagTool() mcp.Tool {
	return mcp.Tool{
		Name:        "verify_tag",
		Description: "Verify one scanned RFID tag against an order's line items",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the order being verified",
				},
				"tag_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the scanned RFID tag",
				},
			},
			Required: []string{"order_id", "tag_id"},
		},
	}
}

// submitVerificationTool returns the tool definition for submit_verification
func submitVerificationTool() mcp.Tool {
	return mcp.Tool{
		Name:        "submit_verification",
		Description: "Close out an order's verification: COMPLETE when all lines reached their targets, FAILED otherwise",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the order to submit",
				},
			},
			Required: []string{"order_id"},
		},
	}
}

// resetVerificationTool returns the tool definition for reset_verification
func resetVerificationTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reset_verification",
		Description: "Roll an order's verification back to NOT_STARTED, clearing all scanned tags",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the order to reset",
				},
			},
			Required: []string{"order_id"},
		},
	}
}

// getVerificationSummaryTool returns the tool definition for get_verification_summary
func getVerificationSummaryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_verification_summary",
		Description: "Get aggregated verification progress for an order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the order",
				},
			},
			Required: []string{"order_id"},
		},
	}
}

// listOrdersTool returns the tool definition for list_orders
func listOrdersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_orders",
		Description: "List all orders with their verification status",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
