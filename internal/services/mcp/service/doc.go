// Package service wires the MCP stdio transport to the record tools.
package service
