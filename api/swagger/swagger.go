package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Scheduling API",
        "description": "Holidays, business days, course schedules and teacher availability",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Holidays", "description": "Holiday calendar"},
        {"name": "Calendar", "description": "Business-day arithmetic"},
        {"name": "Courses", "description": "Course schedule projection and export"},
        {"name": "Availability", "description": "Weekly patterns, resolved slots and capacity"},
        {"name": "Completion", "description": "Enrollment completion badges"}
    ],
    "paths": {
        "/holidays": {
            "get": {
                "tags": ["Holidays"],
                "summary": "List holidays in a date range",
                "parameters": [
                    {"name": "start_date", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Holidays"],
                "summary": "Register a holiday",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateHolidayRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/holidays/{id}": {
            "delete": {
                "tags": ["Holidays"],
                "summary": "Delete a holiday",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/business-days": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Count working days, weekends and holidays in a range",
                "parameters": [
                    {"name": "start_date", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/add-business-days": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Move a date forward by business days",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "days", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/next-business-day": {
            "get": {
                "tags": ["Calendar"],
                "summary": "First business day after a date",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/schedule": {
            "post": {
                "tags": ["Courses"],
                "summary": "Compute the class calendar and end date of a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Schedule exceeds the maximum span", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/schedule/export": {
            "post": {
                "tags": ["Courses"],
                "summary": "Download the course schedule as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/teachers/{id}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolve a teacher's bookable slots in a date range",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "start_date", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "end_date", "in": "query", "type": "string", "format": "date", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Add a weekly availability pattern",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AvailabilityPatternRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/availability/{slotId}": {
            "put": {
                "tags": ["Availability"],
                "summary": "Replace a weekly availability pattern",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "slotId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AvailabilityPatternRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Availability"],
                "summary": "Remove a weekly availability pattern",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "slotId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/availability/calendar": {
            "get": {
                "tags": ["Availability"],
                "summary": "Month view of a teacher's slots grouped by date",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "month", "in": "query", "type": "integer", "required": true, "minimum": 1, "maximum": 12},
                    {"name": "year", "in": "query", "type": "integer", "required": true, "minimum": 2020, "maximum": 2050}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/availability/next": {
            "get": {
                "tags": ["Availability"],
                "summary": "First slot with free seats after a date",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "after", "in": "query", "type": "string", "format": "date", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK; data is null when nothing is free", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/availability/overlaps": {
            "get": {
                "tags": ["Availability"],
                "summary": "Same-weekday patterns whose time windows intersect",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/availability/validation": {
            "get": {
                "tags": ["Availability"],
                "summary": "Audit a teacher's availability configuration",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/availability/stream": {
            "get": {
                "tags": ["Availability"],
                "summary": "Subscribe to a teacher's availability changes (server-sent events)",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Event stream"}
                }
            }
        },
        "/availability/{slotId}/capacity-check": {
            "post": {
                "tags": ["Availability"],
                "summary": "Check whether more students fit an availability slot",
                "parameters": [
                    {"name": "slotId", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CapacityCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/completion-indicators": {
            "get": {
                "tags": ["Completion"],
                "summary": "Completion badges for every active enrollment of a teacher",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "class_date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/completion/status": {
            "post": {
                "tags": ["Completion"],
                "summary": "Classify how close an enrollment is to completion",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompletionStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/completion/indicators": {
            "post": {
                "tags": ["Completion"],
                "summary": "Completion badges for a list of enrollments",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IndicatorsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateHolidayRequest": {
            "type": "object",
            "required": ["date", "name"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "name": {"type": "string", "maxLength": 120},
                "is_national": {"type": "boolean"}
            }
        },
        "CourseScheduleRequest": {
            "type": "object",
            "required": ["start_date", "course_hours", "weekly_classes"],
            "properties": {
                "start_date": {"type": "string", "format": "date"},
                "course_hours": {"type": "integer", "minimum": 1},
                "weekly_classes": {"type": "integer", "minimum": 1, "maximum": 7},
                "exclude_holidays": {"type": "boolean", "default": true}
            }
        },
        "AvailabilityPatternRequest": {
            "type": "object",
            "required": ["day_of_week", "start_time", "end_time", "max_students"],
            "properties": {
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6},
                "start_time": {"type": "string", "example": "08:00"},
                "end_time": {"type": "string", "example": "10:00"},
                "max_students": {"type": "integer", "minimum": 1, "maximum": 50},
                "is_active": {"type": "boolean", "default": true}
            }
        },
        "CapacityCheckRequest": {
            "type": "object",
            "properties": {
                "requested_capacity": {"type": "integer", "minimum": 1, "default": 1},
                "class_date": {"type": "string", "format": "date"}
            }
        },
        "CompletionStatusRequest": {
            "type": "object",
            "required": ["end_date"],
            "properties": {
                "end_date": {"type": "string", "format": "date"},
                "class_date": {"type": "string", "format": "date"},
                "current_date": {"type": "string", "format": "date"}
            }
        },
        "EnrollmentEndDate": {
            "type": "object",
            "required": ["student_id", "enrollment_id"],
            "properties": {
                "student_id": {"type": "string"},
                "student_name": {"type": "string"},
                "enrollment_id": {"type": "string"},
                "end_date": {"type": "string", "format": "date"}
            }
        },
        "IndicatorsRequest": {
            "type": "object",
            "properties": {
                "students": {"type": "array", "items": {"$ref": "#/definitions/EnrollmentEndDate"}},
                "class_date": {"type": "string", "format": "date"},
                "current_date": {"type": "string", "format": "date"}
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
