// Package backend provides the ChatRizz API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and JWT validation
// - internal/realtime: WebSocket hub, presence and event routing
// - internal/store: Room, message and receipt persistence
// - internal/delivery: Per-recipient delivery receipt tracking
// - internal/translate: Translation gateway and provider client
// - internal/database: Database connection and migrations
// - internal/cache: Redis-backed unread counters
// - internal/middleware: HTTP middleware (request IDs, logging, metrics)

// See the individual package documentation for detailed API reference.
package backend
