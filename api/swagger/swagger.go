package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "NetPlan API",
        "description": "Network planning backend for the rotation building console",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Rotations", "description": "Rotation chain management"},
        {"name": "Flights", "description": "Unassigned flight candidates"},
        {"name": "Exports", "description": "Rotation plan exports"},
        {"name": "Authentication", "description": "Console sessions"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/rotations": {
            "get": {
                "tags": ["Rotations"],
                "summary": "List rotation summaries",
                "parameters": [
                    {"name": "variant", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Rotations"],
                "summary": "Delete a whole rotation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeleteRotationRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rotations/next-number": {
            "get": {
                "tags": ["Rotations"],
                "summary": "Next free rotation number",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rotations/{number}": {
            "get": {
                "tags": ["Rotations"],
                "summary": "Get one rotation chain",
                "parameters": [
                    {"name": "number", "in": "path", "required": true, "type": "integer"},
                    {"name": "variant", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rotations/{number}/unlock": {
            "post": {
                "tags": ["Rotations"],
                "summary": "Unlock a rotation summary",
                "parameters": [
                    {"name": "number", "in": "path", "required": true, "type": "integer"},
                    {"name": "variant", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/rotations/legs": {
            "post": {
                "tags": ["Rotations"],
                "summary": "Append a departure to a chain",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AppendLegRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Chain broken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Rotations"],
                "summary": "Remove the tail departure",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DeleteLastLegRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Not the tail departure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rotations/summary": {
            "put": {
                "tags": ["Rotations"],
                "summary": "Save and lock the rotation summary",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveSummaryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Incomplete summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/flights/unassigned": {
            "post": {
                "tags": ["Flights"],
                "summary": "List unassigned candidate flights",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnassignedFlightsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a rotation plan",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportPlanRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a rendered plan",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
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
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/forgot-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Initiate account recovery",
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Reset password with token",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "RotationLeg": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "rotationNumber": {"type": "integer"},
                "variant": {"type": "string"},
                "depNumber": {"type": "integer"},
                "flightNumber": {"type": "string"},
                "depStn": {"type": "string"},
                "arrStn": {"type": "string"},
                "std": {"type": "string"},
                "sta": {"type": "string"},
                "bt": {"type": "string"},
                "gt": {"type": "string"},
                "domIntl": {"type": "string"},
                "dayOffset": {"type": "integer"}
            }
        },
        "Rotation": {
            "type": "object",
            "properties": {
                "rotationNumber": {"type": "integer"},
                "variant": {"type": "string"},
                "rotationTag": {"type": "string"},
                "effFromDt": {"type": "string"},
                "effToDt": {"type": "string"},
                "dow": {"type": "string"},
                "locked": {"type": "boolean"}
            }
        },
        "AppendLegRequest": {
            "type": "object",
            "properties": {
                "rotationNumber": {"type": "integer"},
                "depNumber": {"type": "integer"},
                "flightNumber": {"type": "string"},
                "depStn": {"type": "string"},
                "std": {"type": "string"},
                "bt": {"type": "string"},
                "sta": {"type": "string"},
                "arrStn": {"type": "string"},
                "variant": {"type": "string"},
                "dow": {"type": "string"},
                "effFromDate": {"type": "string"},
                "effToDate": {"type": "string"},
                "domIntl": {"type": "string"},
                "gt": {"type": "string"}
            },
            "required": ["rotationNumber", "depNumber", "flightNumber", "depStn", "std", "bt", "sta", "arrStn", "variant", "dow", "effFromDate", "effToDate"]
        },
        "DeleteLastLegRequest": {
            "type": "object",
            "properties": {
                "rotationNumber": {"type": "integer"},
                "selectedVariant": {"type": "string"},
                "depNumber": {"type": "integer"},
                "legId": {"type": "string"}
            },
            "required": ["rotationNumber", "selectedVariant", "depNumber", "legId"]
        },
        "DeleteRotationRequest": {
            "type": "object",
            "properties": {
                "rotationNumber": {"type": "integer"},
                "selectedVariant": {"type": "string"},
                "totalDepNumber": {"type": "integer"}
            },
            "required": ["rotationNumber", "selectedVariant"]
        },
        "SaveSummaryRequest": {
            "type": "object",
            "properties": {
                "rotationNumber": {"type": "integer"},
                "rotationTag": {"type": "string"},
                "effFromDate": {"type": "string"},
                "effToDate": {"type": "string"},
                "dow": {"type": "string"},
                "selectedVariant": {"type": "string"}
            },
            "required": ["rotationNumber", "effFromDate", "effToDate", "dow", "selectedVariant"]
        },
        "UnassignedFlightsRequest": {
            "type": "object",
            "properties": {
                "allowedDeptStn": {"type": "string"},
                "allowedStdLt": {"type": "string"},
                "selectedVariant": {"type": "string"},
                "effFromDate": {"type": "string"},
                "effToDate": {"type": "string"},
                "dow": {"type": "string"}
            },
            "required": ["selectedVariant", "effFromDate", "effToDate", "dow"]
        },
        "ExportPlanRequest": {
            "type": "object",
            "properties": {
                "rotationNumber": {"type": "integer"},
                "variant": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["rotationNumber", "variant", "format"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
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
