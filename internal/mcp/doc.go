// Package mcp exposes the verification engine as MCP tools.
//
// The server speaks the Model Context Protocol over stdio, letting an LLM
// client inspect warehouse orders and drive verification:
//
//   - verify_tag: match one scanned tag against an order
//   - submit_verification: close out an order (COMPLETE or FAILED)
//   - reset_verification: roll an order back to NOT_STARTED
//   - get_verification_summary: aggregated progress for an order
//   - list_orders: all orders with their verification status
//
// Operator-level scan outcomes (duplicate, exceeded, unknown item) come back
// inside the tool result; protocol-level errors are reserved for unknown
// orders, busy orders, and infrastructure failures.
//
// stdout is reserved for the protocol; all logging goes to stderr.
package mcp
