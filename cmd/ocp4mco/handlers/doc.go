// Package handlers implements the business logic behind the CLI commands.
//
// Collaborators are reached through package level factory variables so the
// command flow can be tested without clusters or client tools.
package handlers
