package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CampusPlan Timetable API",
        "description": "Course scheduling backend: planner sessions, conflict evaluation and greedy auto-scheduling",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and password management"},
        {"name": "Planner", "description": "Interactive planning sessions, placements and auto-scheduling"},
        {"name": "Schedule", "description": "Published timetable entries"},
        {"name": "Offerings", "description": "Course offerings per term"},
        {"name": "Instructors", "description": "Instructor roster and unavailability grids"},
        {"name": "Halls", "description": "Lecture hall inventory"},
        {"name": "TimeSlots", "description": "Canonical weekly teaching grid"},
        {"name": "Terms", "description": "Academic terms"},
        {"name": "Departments", "description": "Academic departments"},
        {"name": "Users", "description": "Account management"},
        {"name": "Exports", "description": "Timetable downloads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/planner/sessions": {
            "post": {
                "tags": ["Planner"],
                "summary": "Open a planning session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Session opened", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Term or department not found"}
                }
            }
        },
        "/planner/sessions/{sessionId}": {
            "get": {
                "tags": ["Planner"],
                "summary": "Session metadata",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session closed or expired"}
                }
            },
            "delete": {
                "tags": ["Planner"],
                "summary": "Close a planning session",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Closed"},
                    "404": {"description": "Session closed or expired"}
                }
            }
        },
        "/planner/sessions/{sessionId}/options": {
            "get": {
                "tags": ["Planner"],
                "summary": "Planning grid payload",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session closed or expired"}
                }
            }
        },
        "/planner/sessions/{sessionId}/room-options": {
            "get": {
                "tags": ["Planner"],
                "summary": "Room options for a grid cell",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "offeringId", "in": "query", "required": true, "type": "string"},
                    {"name": "day", "in": "query", "required": true, "type": "integer"},
                    {"name": "time", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Session or offering not found"},
                    "422": {"description": "No slot at the requested day and time"}
                }
            }
        },
        "/planner/sessions/{sessionId}/placements": {
            "post": {
                "tags": ["Planner"],
                "summary": "Place an offering",
                "description": "Overridable conflicts require confirm=true; hall double-bookings are never overridable",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlacementRequest"}}
                ],
                "responses": {
                    "200": {"description": "Placed or confirmation required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Hall already booked"},
                    "422": {"description": "Slot not resolvable"}
                }
            }
        },
        "/planner/sessions/{sessionId}/evaluate": {
            "post": {
                "tags": ["Planner"],
                "summary": "Evaluate a candidate placement without writing",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlacementRequest"}}
                ],
                "responses": {
                    "200": {"description": "Conflict report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/sessions/{sessionId}/auto-schedule": {
            "post": {
                "tags": ["Planner"],
                "summary": "Run the greedy auto-scheduler",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Run summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/timetable.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export timetable as CSV",
                "parameters": [
                    {"name": "termId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/exports/timetable.pdf": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export timetable as a weekly grid PDF",
                "parameters": [
                    {"name": "termId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF file"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "OpenSessionRequest": {
            "type": "object",
            "required": ["termId", "departmentId"],
            "properties": {
                "termId": {"type": "string"},
                "departmentId": {"type": "string"}
            }
        },
        "PlacementRequest": {
            "type": "object",
            "required": ["offeringId", "hallId", "dayOfWeek", "startTime"],
            "properties": {
                "offeringId": {"type": "string"},
                "hallId": {"type": "string"},
                "dayOfWeek": {"type": "integer", "minimum": 1, "maximum": 5},
                "startTime": {"type": "string", "example": "08:30"},
                "weekPattern": {"type": "string", "enum": ["EVERY_WEEK", "ODD_WEEKS", "EVEN_WEEKS"]},
                "confirm": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
