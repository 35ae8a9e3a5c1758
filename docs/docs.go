// Package docs provides swagger documentation for the Management Dashboard API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Management Dashboard API",
        "description": "Calendar intelligence and rule-driven decision support for managers",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "1.0"
    },
    "host": "{{.Host}}",
    "basePath": "/",
    "paths": {
        "/api/calendar/events": {
            "get": {
                "description": "Returns events starting within [timeMin, timeMax), sorted by start time",
                "produces": ["application/json"],
                "tags": ["Calendar"],
                "summary": "List calendar events",
                "parameters": [
                    {"type": "string", "description": "Window start (RFC 3339), defaults to now", "name": "timeMin", "in": "query"},
                    {"type": "string", "description": "Window end (RFC 3339), defaults to 7 days after timeMin", "name": "timeMax", "in": "query"},
                    {"type": "integer", "description": "Maximum number of events (default 10)", "name": "maxResults", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Events", "schema": {"type": "array", "items": {"$ref": "#/definitions/CalendarEvent"}}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/calendar/events/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Calendar"],
                "summary": "Get a calendar event",
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Event", "schema": {"$ref": "#/definitions/CalendarEvent"}},
                    "404": {"description": "Event not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/calendar/events/{id}/prep": {
            "get": {
                "description": "Extracts the agenda, builds a notes template and attendee context",
                "produces": ["application/json"],
                "tags": ["Calendar"],
                "summary": "Generate meeting preparation",
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Preparation material", "schema": {"$ref": "#/definitions/MeetingPreparation"}},
                    "404": {"description": "Event not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/calendar/insights/daily": {
            "get": {
                "description": "Today's meetings plus conflicts and preparation tasks over the next 30 days",
                "produces": ["application/json"],
                "tags": ["Calendar"],
                "summary": "Daily calendar insights",
                "responses": {
                    "200": {"description": "Daily insights", "schema": {"type": "object"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/calendar/analyze": {
            "post": {
                "description": "Busy time, conflicts, preparation needs and recommendations for a time range. userId falls back to the x-user-id header.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Calendar"],
                "summary": "Analyze schedule",
                "parameters": [
                    {"description": "Analysis request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalendarAnalysisRequest"}}
                ],
                "responses": {
                    "200": {"description": "Analysis", "schema": {"type": "object"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/tools": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "List calendar tools",
                "responses": {
                    "200": {"description": "Tools", "schema": {"type": "array", "items": {"type": "object"}}}
                }
            }
        },
        "/api/tools/{name}": {
            "post": {
                "description": "Dispatches to calendar.listEvents, calendar.getEvent, calendar.analyzeSchedule, calendar.getDailyInsights or calendar.generateMeetingPrep",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "Execute a calendar tool",
                "parameters": [
                    {"type": "string", "description": "Tool name", "name": "name", "in": "path", "required": true},
                    {"description": "Tool parameters", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/ToolCallRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tool result", "schema": {"$ref": "#/definitions/ToolCallResponse"}},
                    "400": {"description": "Invalid parameters", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Unknown tool or event", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/resources": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Tools"],
                "summary": "List or read calendar resources",
                "parameters": [
                    {"type": "string", "description": "Resource URI, e.g. calendar://insights/daily", "name": "uri", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Resource list or content", "schema": {"type": "object"}},
                    "404": {"description": "Unknown resource", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/decisions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Decisions"],
                "summary": "List decisions",
                "parameters": [
                    {"type": "string", "description": "Filter by status", "name": "status", "in": "query", "enum": ["pending", "approved", "rejected", "auto-approved", "escalated"]}
                ],
                "responses": {
                    "200": {"description": "Decisions in creation order", "schema": {"type": "array", "items": {"$ref": "#/definitions/Decision"}}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Stores a pending decision, then applies the first matching rule and the auto-decision threshold",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Decisions"],
                "summary": "Create a decision",
                "parameters": [
                    {"description": "Decision", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateDecisionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Decision after evaluation", "schema": {"$ref": "#/definitions/Decision"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/decisions/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Decisions"],
                "summary": "Decision history",
                "responses": {
                    "200": {"description": "History in append order", "schema": {"type": "array", "items": {"$ref": "#/definitions/DecisionHistory"}}}
                }
            }
        },
        "/api/decisions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Decisions"],
                "summary": "Get a decision",
                "parameters": [
                    {"type": "string", "description": "Decision ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Decision", "schema": {"$ref": "#/definitions/Decision"}},
                    "404": {"description": "Decision not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/decisions/{id}/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Decisions"],
                "summary": "History of a decision",
                "parameters": [
                    {"type": "string", "description": "Decision ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "History entries", "schema": {"type": "array", "items": {"$ref": "#/definitions/DecisionHistory"}}}
                }
            }
        },
        "/api/decisions/{id}/approve": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "approvedBy falls back to the x-user-id header",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Decisions"],
                "summary": "Approve a decision",
                "parameters": [
                    {"type": "string", "description": "Decision ID", "name": "id", "in": "path", "required": true},
                    {"description": "Approval", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApproveDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Approved decision", "schema": {"$ref": "#/definitions/Decision"}},
                    "404": {"description": "Decision or option not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/decisions/{id}/reject": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "rejectedBy falls back to the x-user-id header",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Decisions"],
                "summary": "Reject a decision",
                "parameters": [
                    {"type": "string", "description": "Decision ID", "name": "id", "in": "path", "required": true},
                    {"description": "Rejection", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/RejectDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rejected decision", "schema": {"$ref": "#/definitions/Decision"}},
                    "404": {"description": "Decision not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/decisions/{id}/feedback": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Decisions"],
                "summary": "Rate a decision outcome",
                "parameters": [
                    {"type": "string", "description": "Decision ID", "name": "id", "in": "path", "required": true},
                    {"description": "Feedback", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeedbackRequest"}}
                ],
                "responses": {
                    "204": {"description": "Feedback recorded"},
                    "404": {"description": "No history for decision", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/rules": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Rules"],
                "summary": "List decision rules",
                "responses": {
                    "200": {"description": "Rules sorted by priority", "schema": {"type": "array", "items": {"$ref": "#/definitions/DecisionRule"}}}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Only decisions created afterwards are evaluated against the new rule",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Rules"],
                "summary": "Add a decision rule",
                "parameters": [
                    {"description": "Rule", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRule"}}
                ],
                "responses": {
                    "201": {"description": "Stored rule", "schema": {"$ref": "#/definitions/DecisionRule"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/rules/{id}": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Rules"],
                "summary": "Remove a decision rule",
                "parameters": [
                    {"type": "string", "description": "Rule ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Removal result", "schema": {"$ref": "#/definitions/DeleteRuleResponse"}},
                    "404": {"description": "Rule not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "Attendee": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "alice@example.com"},
                "name": {"type": "string", "example": "Alice Johnson"},
                "responseStatus": {"type": "string", "enum": ["accepted", "declined", "tentative", "needsAction"]},
                "optional": {"type": "boolean"},
                "organizer": {"type": "boolean"}
            }
        },
        "CalendarEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string", "example": "Q2 Planning Review"},
                "description": {"type": "string"},
                "startTime": {"type": "string", "format": "date-time"},
                "endTime": {"type": "string", "format": "date-time"},
                "location": {"type": "string"},
                "attendees": {"type": "array", "items": {"$ref": "#/definitions/Attendee"}},
                "status": {"type": "string", "enum": ["confirmed", "tentative", "cancelled"]},
                "meetingLink": {"type": "string"},
                "metadata": {"type": "object"}
            }
        },
        "MeetingPreparation": {
            "type": "object",
            "properties": {
                "eventId": {"type": "string"},
                "title": {"type": "string"},
                "agenda": {"type": "array", "items": {"type": "string"}},
                "notes": {"type": "string", "description": "Markdown notes template"},
                "actionItems": {"type": "array", "items": {"type": "string"}},
                "relevantDocuments": {"type": "array", "items": {"type": "object"}},
                "attendeeContext": {"type": "array", "items": {"type": "object"}}
            }
        },
        "CalendarAnalysisRequest": {
            "type": "object",
            "required": ["timeRange"],
            "properties": {
                "timeRange": {"type": "string", "enum": ["today", "tomorrow", "week", "month"]},
                "userId": {"type": "string"},
                "includeDeclinedEvents": {"type": "boolean"},
                "includeCancelledEvents": {"type": "boolean"}
            }
        },
        "ToolCallRequest": {
            "type": "object",
            "properties": {
                "params": {"type": "object"}
            }
        },
        "ToolCallResponse": {
            "type": "object",
            "properties": {
                "tool": {"type": "string", "example": "calendar.getDailyInsights"},
                "result": {"type": "object"}
            }
        },
        "DecisionOption": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "string", "example": "approve"},
                "description": {"type": "string"},
                "impact": {
                    "type": "object",
                    "properties": {
                        "description": {"type": "string"},
                        "scope": {"type": "string", "enum": ["individual", "team", "department", "organization"]},
                        "metrics": {"type": "object"}
                    }
                },
                "confidence": {"type": "number", "minimum": 0, "maximum": 1, "example": 0.9}
            }
        },
        "DecisionContext": {
            "type": "object",
            "required": ["userId"],
            "properties": {
                "userId": {"type": "string"},
                "teamId": {"type": "string"},
                "departmentId": {"type": "string"},
                "projectId": {"type": "string"},
                "relatedEntities": {"type": "array", "items": {"type": "string"}},
                "metadata": {"type": "object"}
            }
        },
        "CreateDecisionRequest": {
            "type": "object",
            "required": ["title", "category", "priority"],
            "properties": {
                "title": {"type": "string", "example": "Software license purchase"},
                "description": {"type": "string"},
                "category": {"type": "string", "enum": ["budget", "scheduling", "communication", "task", "resource", "other"]},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
                "dueBy": {"type": "string", "format": "date-time"},
                "context": {"$ref": "#/definitions/DecisionContext"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/DecisionOption"}},
                "autoDecisionThreshold": {"type": "number", "minimum": 0, "maximum": 1, "example": 0.8},
                "notifyUsers": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Decision": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "decision-2f1c0c7e-8a0b-4a53-9f7a-3c1d2e4b5a6f"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "priority": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "approved", "rejected", "auto-approved", "escalated"]},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"},
                "dueBy": {"type": "string", "format": "date-time"},
                "context": {"$ref": "#/definitions/DecisionContext"},
                "options": {"type": "array", "items": {"$ref": "#/definitions/DecisionOption"}},
                "selectedOption": {"type": "string"},
                "reasoning": {"type": "string"},
                "approvedBy": {"type": "string"},
                "rejectedBy": {"type": "string"},
                "escalatedTo": {"type": "string"},
                "autoDecisionThreshold": {"type": "number"},
                "notifyUsers": {"type": "array", "items": {"type": "string"}}
            }
        },
        "DecisionHistory": {
            "type": "object",
            "properties": {
                "decisionId": {"type": "string"},
                "outcome": {"type": "string", "enum": ["approved", "rejected"]},
                "selectedOption": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"},
                "feedback": {
                    "type": "object",
                    "properties": {
                        "rating": {"type": "integer", "minimum": 1, "maximum": 5},
                        "comments": {"type": "string"}
                    }
                }
            }
        },
        "RuleCondition": {
            "type": "object",
            "required": ["field", "operator"],
            "properties": {
                "field": {"type": "string", "example": "context.metadata.amount"},
                "operator": {"type": "string", "enum": ["equals", "not_equals", "greater_than", "less_than", "contains", "not_contains"]},
                "value": {}
            }
        },
        "DecisionRule": {
            "type": "object",
            "required": ["name", "category", "action"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string", "enum": ["budget", "scheduling", "communication", "task", "resource", "other"]},
                "conditions": {"type": "array", "items": {"$ref": "#/definitions/RuleCondition"}},
                "action": {"type": "string", "enum": ["auto_approve", "auto_reject", "escalate", "notify"]},
                "actionParams": {"type": "object"},
                "priority": {"type": "integer"},
                "enabled": {"type": "boolean"}
            }
        },
        "ApproveDecisionRequest": {
            "type": "object",
            "required": ["optionId"],
            "properties": {
                "optionId": {"type": "string"},
                "approvedBy": {"type": "string"},
                "reasoning": {"type": "string"}
            }
        },
        "RejectDecisionRequest": {
            "type": "object",
            "properties": {
                "rejectedBy": {"type": "string"},
                "reasoning": {"type": "string"}
            }
        },
        "FeedbackRequest": {
            "type": "object",
            "required": ["rating"],
            "properties": {
                "rating": {"type": "integer", "minimum": 1, "maximum": 5},
                "comments": {"type": "string"}
            }
        },
        "DeleteRuleResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid request body"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "x-api-key",
            "in": "header",
            "description": "API Key for protected endpoints"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Management Dashboard API",
	Description:      "Calendar intelligence and rule-driven decision support for managers",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
