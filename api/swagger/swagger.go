package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Planner API",
        "description": "Builds, scores and ranks conflict-free course schedules",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedules", "description": "Schedule generation and conflict checks"},
        {"name": "Catalog", "description": "Catalog cache maintenance"},
        {"name": "Metrics", "description": "Operational metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "A dependency is failing"}
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
        "/metrics": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Prometheus exposition",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules/plans": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Generate ranked schedule options",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/PlanEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No sections or unresolvable conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Deadline exceeded before any option was found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules/plans/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Fetch a stored plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PlanEnvelope"}},
                    "404": {"description": "Unknown or expired plan", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules/plans/{id}/options/{rank}/export": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Download one option as a timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "rank", "in": "path", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Timetable file"},
                    "400": {"description": "Invalid rank or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown plan or rank", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules/conflicts": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Check sections against each other",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules/preferences/defaults": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Default preference weights",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/catalog/terms/{termId}/cache": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Drop cached catalog offerings of a term",
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "503": {"description": "Catalog not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "DaySet": {
            "description": "Letter string such as MWF or TTh, a bitmask with bit 0 for Monday, or an array of day names"
        },
        "Meeting": {
            "type": "object",
            "properties": {
                "days": {"$ref": "#/definitions/DaySet"},
                "startMinute": {"type": "integer"},
                "endMinute": {"type": "integer"},
                "location": {"type": "string"}
            }
        },
        "Instructor": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "rating": {"type": "number"},
                "workload": {"type": "number"}
            }
        },
        "Section": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "courseId": {"type": "string"},
                "meetings": {"type": "array", "items": {"$ref": "#/definitions/Meeting"}},
                "capacity": {"type": "integer"},
                "enrolled": {"type": "integer"},
                "instructors": {"type": "array", "items": {"$ref": "#/definitions/Instructor"}}
            }
        },
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "credits": {"type": "number"},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/Section"}}
            }
        },
        "Constraints": {
            "type": "object",
            "properties": {
                "minCredits": {"type": "number"},
                "maxCredits": {"type": "number"},
                "earliestStart": {"type": "integer"},
                "latestEnd": {"type": "integer"},
                "minQualityScore": {"type": "number"}
            }
        },
        "Preferences": {
            "type": "object",
            "properties": {
                "workloadWeight": {"type": "number"},
                "ratingWeight": {"type": "number"},
                "timeFitWeight": {"type": "number"},
                "instructorMatchWeight": {"type": "number"},
                "preferredInstructors": {"type": "array", "items": {"type": "string"}},
                "avoidedInstructors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "GeneratePlanRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "courseIds": {"type": "array", "items": {"type": "string"}},
                "courses": {"type": "array", "items": {"$ref": "#/definitions/Course"}},
                "constraints": {"$ref": "#/definitions/Constraints"},
                "preferences": {"$ref": "#/definitions/Preferences"},
                "suggestedSectionIdSets": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}},
                "useSuggestions": {"type": "boolean"},
                "query": {"type": "string"},
                "maxOptions": {"type": "integer"},
                "searchBudget": {"type": "integer"},
                "deadlineMs": {"type": "integer"},
                "idealCredits": {"type": "number"},
                "excludeFullSections": {"type": "boolean"}
            }
        },
        "ConflictCheckRequest": {
            "type": "object",
            "properties": {
                "sections": {"type": "array", "items": {"$ref": "#/definitions/Section"}}
            }
        },
        "ScheduleOption": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "rank": {"type": "integer"},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/Section"}},
                "totalCredits": {"type": "number"},
                "qualityScore": {"type": "number"},
                "breakdown": {"type": "object"}
            }
        },
        "Plan": {
            "type": "object",
            "properties": {
                "planId": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "expiresAt": {"type": "string", "format": "date-time"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/ScheduleOption"}},
                "weights": {"type": "object"},
                "meta": {"type": "object"},
                "suggestions": {"type": "string", "enum": ["none", "inline", "service", "unavailable"]}
            }
        },
        "PlanEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/Plan"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
