package main

import (
	"log"
	"pickcoordinator/internal/config"
	"pickcoordinator/internal/server"
)

//	@title			Pick Coordinator API
//	@version		1.0.0
//	@description	Coordinates warehouse pick requests from submission through claim, item-by-item picking, and completion or cancellation.
//
//	## API Overview
//	This API manages the lifecycle of pick requests raised by requesters and worked by pickers:
//
//	### Core Entities
//	- **Requests**: Pick requests submitted by requesters and claimed by pickers, moving through pending, in_progress, paused, partially_completed, completed, and cancelled states.
//	- **Items**: Individual UPC/quantity lines attached to a request, each picked, short, or skipped independently.
//	- **Principals**: Authenticated users (admin, requester, picker) with role-based capabilities.
//
//	### Key Features
//	- **Claim Coordination**: Guarded conditional updates prevent two pickers from claiming the same request.
//	- **Item Ledger**: Per-item picked/shortage tracking with a durable append-only pick log.
//	- **Live Sessions**: WebSocket-driven picker sessions stream request and item state as picking progresses.
//	- **Stale Claim Reaping**: Background sweeps release claims abandoned past a configurable timeout.
//	- **Product Catalog Lookup**: UPC-to-name resolution for items missing a product name.
//
//	### Authentication & Authorization
//	JWT-based authentication with role-based access control:
//	- **admin**: Full system access, including principal management.
//	- **requester**: Create and cancel their own pick requests.
//	- **picker**: Claim pending requests and record picks against claimed items.
//
//	### Error Handling
//	Consistent error responses across all endpoints:
//	- **400 Bad Request**: Malformed request body
//	- **401 Unauthorized**: Missing or invalid authentication
//	- **403 Forbidden**: Insufficient permissions
//	- **404 Not Found**: Resource not found
//	- **409 Conflict**: Request already claimed by another principal, or request name / username already taken
//	- **422 Unprocessable Entity**: Operation not allowed in the request's current status, quantity out of bounds, invalid request name, validation errors, catalog not loaded
//	- **429 Too Many Requests**: Rate limit exceeded
//	- **500 Internal Server Error**: System errors
//
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT token authentication. Include 'Bearer ' followed by your JWT token.

//	@tag.name			auth
//	@tag.description	Login, token refresh, and principal management endpoints.

//	@tag.name			pick-requests
//	@tag.description	Pick request creation, claiming, item picking, and completion endpoints.

//	@tag.name			sessions
//	@tag.description	WebSocket picker session endpoints streaming live request and item state.

//	@tag.name			admin
//	@tag.description	Administrative endpoints for claim reaping and system status.

//	@tag.name			health
//	@tag.description	System health and monitoring endpoints for service status, database, and Redis connectivity.

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
