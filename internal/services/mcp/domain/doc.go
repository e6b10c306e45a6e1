// Package domain translates MCP tool calls into list page operations.
//
// Every call opens a schema-less page over one catalog resource, so tools get
// the same validation, optimistic mutation and notice handling as the board
// client:
// - list_records loads the collection and returns the filtered projection,
// - create/update/delete_record dispatch through the page's mutation
//   dispatcher and report its notice.
package domain
