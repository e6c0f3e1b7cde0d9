package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/JihedeMedini/rfid-verify/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeOrderNotFound = -32001 // Specified order does not exist
	ErrorCodeOrderBusy     = -32002 // Order lock wait timed out or write conflicted
)

// handleVerifyTag handles the verify_tag tool invocation
func (s *Server) handleVerifyTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	orderID, err := requiredString(args, "order_id")
	if err != nil {
		return nil, err
	}
	tagID, err := requiredString(args, "tag_id")
	if err != nil {
		return nil, err
	}

	result, err := s.engine.VerifyTag(ctx, orderID, tagID)
	if err != nil {
		return nil, engineError(err)
	}

	response := map[string]interface{}{
		"is_valid":     result.IsValid,
		"status":       string(result.Status),
		"message":      result.Message,
		"order_status": string(result.OrderStatus),
	}
	if result.ItemID != "" {
		response["item_id"] = result.ItemID
	}
	if result.Line != nil {
		response["line"] = map[string]interface{}{
			"item_id":           result.Line.ItemID,
			"target_quantity":   result.Line.TargetQty,
			"verified_quantity": result.Line.VerifiedQty,
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSubmitVerification handles the submit_verification tool invocation
func (s *Server) handleSubmitVerification(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	orderID, err := requiredString(args, "order_id")
	if err != nil {
		return nil, err
	}

	status, err := s.engine.SubmitVerification(ctx, orderID)
	if err != nil {
		return nil, engineError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"order_id":            orderID,
		"verification_status": string(status),
	})), nil
}

// handleResetVerification handles the reset_verification tool invocation
func (s *Server) handleResetVerification(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	orderID, err := requiredString(args, "order_id")
	if err != nil {
		return nil, err
	}

	if err := s.engine.ResetVerification(ctx, orderID); err != nil {
		return nil, engineError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"order_id": orderID,
		"reset":    true,
	})), nil
}

// handleGetVerificationSummary handles the get_verification_summary tool invocation
func (s *Server) handleGetVerificationSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	orderID, err := requiredString(args, "order_id")
	if err != nil {
		return nil, err
	}

	summary, err := s.engine.GetVerificationSummary(ctx, orderID)
	if err != nil {
		return nil, engineError(err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"order_id":       summary.OrderID,
		"total_target":   summary.TotalTarget,
		"total_verified": summary.TotalVerified,
		"progress":       summary.Progress,
		"is_complete":    summary.IsComplete,
	})), nil
}

// handleListOrders handles the list_orders tool invocation
func (s *Server) handleListOrders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orders, err := s.engine.GetAllOrders(ctx)
	if err != nil {
		return nil, engineError(err)
	}

	list := make([]map[string]interface{}, 0, len(orders))
	for _, o := range orders {
		totalTarget, totalVerified := 0, 0
		for _, l := range o.Lines {
			totalTarget += l.TargetQty
			totalVerified += l.VerifiedQty
		}
		list = append(list, map[string]interface{}{
			"id":                  o.ID,
			"external_ref":        o.ExternalRef,
			"kind":                string(o.Kind),
			"verification_status": string(o.Status),
			"lines":               len(o.Lines),
			"total_target":        totalTarget,
			"total_verified":      totalVerified,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"count":  len(list),
		"orders": list,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// engineError maps engine errors onto MCP error codes
func engineError(err error) error {
	switch {
	case errors.Is(err, types.ErrOrderNotFound):
		return newMCPError(ErrorCodeOrderNotFound, "order not found", nil)
	case types.IsRetryable(err):
		return newMCPError(ErrorCodeOrderBusy, "order busy, retry", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		return newMCPError(ErrorCodeInternalError, "engine call failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func requiredString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}
