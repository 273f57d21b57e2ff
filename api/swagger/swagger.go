package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Journey Analytics API",
        "description": "Faculty dashboard KPIs and activity feed",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Dashboard", "description": "KPI strip"},
        {"name": "Activity", "description": "Activity feed"}
    ],
    "paths": {
        "/dashboard/kpis": {
            "get": {
                "summary": "Dashboard KPI strip",
                "tags": ["Dashboard"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "user_id", "in": "query", "type": "string", "format": "uuid", "required": false},
                    {"name": "period", "in": "query", "type": "string", "enum": ["7d", "30d", "semester"], "default": "7d"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/KpiEnvelope"}},
                    "400": {"description": "VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "401": {"description": "UNAUTHORIZED", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "FORBIDDEN", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "500": {"description": "INTERNAL_ERROR", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/activity": {
            "get": {
                "summary": "Activity feed",
                "tags": ["Activity"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "user_id", "in": "query", "type": "string", "format": "uuid", "required": true},
                    {"name": "event_types", "in": "query", "type": "string", "description": "Comma-separated: question_generated, question_reviewed, question_approved, question_rejected, coverage_gap_detected, bulk_generation_complete"},
                    {"name": "limit", "in": "query", "type": "integer", "minimum": 1, "maximum": 50, "default": 20},
                    {"name": "offset", "in": "query", "type": "integer", "minimum": 0, "default": 0}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ActivityEnvelope"}},
                    "400": {"description": "VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "401": {"description": "UNAUTHORIZED", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "403": {"description": "FORBIDDEN", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "500": {"description": "INTERNAL_ERROR", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "enum": ["UNAUTHORIZED", "VALIDATION_ERROR", "FORBIDDEN", "INTERNAL_ERROR"]},
                "message": {"type": "string"}
            }
        },
        "MetricSample": {
            "type": "object",
            "properties": {
                "key": {"type": "string", "enum": ["questions_generated", "approval_rate", "coverage_score", "time_saved"]},
                "label": {"type": "string"},
                "value": {"type": "number"},
                "unit": {"type": "string"},
                "previous_value": {"type": "number"},
                "trend_percent": {"type": "number"},
                "trend_direction": {"type": "string", "enum": ["up", "down", "flat"]}
            }
        },
        "KpiResponse": {
            "type": "object",
            "properties": {
                "metrics": {"type": "array", "items": {"$ref": "#/definitions/MetricSample"}},
                "period": {"type": "string"},
                "period_start": {"type": "string", "format": "date-time"},
                "period_end": {"type": "string", "format": "date-time"},
                "scope": {"type": "string", "enum": ["personal", "institution"]}
            }
        },
        "ActivityEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "institution_id": {"type": "string"},
                "event_type": {"type": "string"},
                "entity_id": {"type": "string"},
                "entity_type": {"type": "string"},
                "metadata": {"type": "object"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "ActivityFeedResponse": {
            "type": "object",
            "properties": {
                "events": {"type": "array", "items": {"$ref": "#/definitions/ActivityEvent"}},
                "meta": {
                    "type": "object",
                    "properties": {
                        "limit": {"type": "integer"},
                        "offset": {"type": "integer"},
                        "total": {"type": "integer"},
                        "has_more": {"type": "boolean"}
                    }
                }
            }
        },
        "KpiEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/KpiResponse"},
                "error": {"type": "object"},
                "meta": {"type": "object"}
            }
        },
        "ActivityEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ActivityFeedResponse"},
                "error": {"type": "object"},
                "meta": {"type": "object"}
            }
        },
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"}
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
