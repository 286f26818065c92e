// Package cli implements the formengine command tree.
//
// Commands share one App: it loads configuration lazily, resolves the schema
// page, builds the change-request client, and formats output as a table or as
// JSON (--json).
//
// Commands:
//
//	serve      Run the HTTP form service
//	init       Write a default configuration file
//	lint       Check schema pages
//	validate   Validate a payload against the schema
//	render     Render a payload as HTML, JSON or a text summary
//	edit       Fill a payload interactively in the terminal
//	openapi    Print the OpenAPI document for the schema
//	cr         Work with change requests on the backend
package cli
