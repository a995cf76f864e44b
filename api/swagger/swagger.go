package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Yoga Escrow Teacher API",
        "description": "Teacher dashboards, class history and escrow actions over the yoga escrow ledger",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Dashboard", "description": "Opportunities, upcoming classes and history for a teacher"},
        {"name": "Actions", "description": "Accept, release, cancel and dispute calls"},
        {"name": "Escrows", "description": "Raw escrow records from the chain index"},
        {"name": "Admin", "description": "Ledger-wide totals"}
    ],
    "paths": {
        "/teachers/me/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard of the calling teacher",
                "parameters": [
                    {"name": "sort", "in": "query", "type": "string", "enum": ["recent", "payout", "earliest"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TeacherDashboardEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Ledger unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/me/dashboard/refresh": {
            "post": {
                "tags": ["Dashboard"],
                "summary": "Rebuild the dashboard from a fresh ledger read",
                "parameters": [
                    {"name": "sort", "in": "query", "type": "string", "enum": ["recent", "payout", "earliest"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TeacherDashboardEnvelope"}},
                    "409": {"description": "Refresh already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{handle}/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Dashboard of any teacher (admin)",
                "parameters": [
                    {"name": "handle", "in": "path", "required": true, "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["recent", "payout", "earliest"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TeacherDashboardEnvelope"}},
                    "400": {"description": "Invalid handle", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/me/history/export": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Download class history",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Attachment", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/actions": {
            "post": {
                "tags": ["Actions"],
                "summary": "Queue an escrow action",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitActionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not a party", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Escrow state does not allow the action", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Actions disabled or queue busy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/actions/{id}": {
            "get": {
                "tags": ["Actions"],
                "summary": "Status of a queued action",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/escrows/{id}": {
            "get": {
                "tags": ["Escrows"],
                "summary": "Escrow by id",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/escrows": {
            "get": {
                "tags": ["Escrows"],
                "summary": "Escrows funded by a student wallet",
                "parameters": [
                    {"name": "student", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/overview": {
            "get": {
                "tags": ["Admin"],
                "summary": "Ledger-wide totals and process metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ClassOpportunity": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "escrowId": {"type": "integer"},
                "studentAddress": {"type": "string"},
                "teacherHandle": {"type": "string"},
                "timeIndex": {"type": "integer"},
                "proposedTime": {"type": "string", "format": "date-time"},
                "location": {"type": "string"},
                "description": {"type": "string"},
                "payout": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "GroupedOpportunity": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "location": {"type": "string"},
                "proposedTime": {"type": "string", "format": "date-time"},
                "opportunities": {"type": "array", "items": {"$ref": "#/definitions/ClassOpportunity"}},
                "totalPayout": {"type": "string"},
                "studentCount": {"type": "integer"},
                "isGroup": {"type": "boolean"},
                "latestCreatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "GroupStudent": {
            "type": "object",
            "properties": {
                "escrowId": {"type": "integer"},
                "studentAddress": {"type": "string"},
                "payout": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "AcceptedClass": {
            "type": "object",
            "properties": {
                "escrowId": {"type": "integer"},
                "studentAddress": {"type": "string"},
                "teacherHandle": {"type": "string"},
                "payout": {"type": "string"},
                "status": {"type": "string", "enum": ["accepted", "completed", "cancelled"]},
                "classTime": {"type": "string", "format": "date-time"},
                "timeIndex": {"type": "integer"},
                "location": {"type": "string"},
                "description": {"type": "string"},
                "acceptedAt": {"type": "string", "format": "date-time"},
                "isGroup": {"type": "boolean"},
                "totalPayout": {"type": "string"},
                "totalStudents": {"type": "integer"},
                "students": {"type": "array", "items": {"$ref": "#/definitions/GroupStudent"}}
            }
        },
        "TeacherDashboard": {
            "type": "object",
            "properties": {
                "handle": {"type": "string"},
                "sort": {"type": "string"},
                "generatedAt": {"type": "string", "format": "date-time"},
                "opportunities": {"type": "array", "items": {"$ref": "#/definitions/GroupedOpportunity"}},
                "upcomingClasses": {"type": "array", "items": {"$ref": "#/definitions/AcceptedClass"}},
                "classHistory": {"type": "array", "items": {"$ref": "#/definitions/AcceptedClass"}}
            }
        },
        "TeacherDashboardEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/TeacherDashboard"},
                "meta": {"type": "object"}
            }
        },
        "SubmitActionRequest": {
            "type": "object",
            "required": ["type", "escrowId"],
            "properties": {
                "type": {"type": "string", "enum": ["accept", "release", "cancel", "dispute"]},
                "escrowId": {"type": "integer"},
                "timeIndex": {"type": "integer", "minimum": 0, "maximum": 2},
                "reason": {"type": "string", "maxLength": 280}
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
