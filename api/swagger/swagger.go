package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Drive Booking API",
        "description": "Driving school lesson booking platform",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Bookings", "description": "Lesson booking lifecycle"},
        {"name": "Instructors", "description": "Teaching roster"},
        {"name": "Availability", "description": "Working windows, absences and overrides"}
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
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings",
                "parameters": [
                    {"name": "instructor_id", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "approved", "completed", "cancelled"]},
                    {"name": "class_type", "in": "query", "type": "string", "enum": ["class4", "class5", "class7"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Bookings with pagination", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Book a lesson",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Booking created pending approval", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Validation failure", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Slot conflict, window miss or duplicate pending booking", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get booking detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Booking", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/bookings/{id}/status": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Change booking status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated booking", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Illegal transition", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/bookings/{id}/payment-status": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Change booking payment status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePaymentStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated booking", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Illegal transition", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/bookings/{id}/cancel": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Cancel a booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/CancelBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "Cancelled booking", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Booking already in a terminal state", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/bookings/{id}/reschedule": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Reschedule a booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "Moved booking", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Slot conflict or terminal booking state", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/bookings/sweep": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Cancel expired pending bookings",
                "responses": {
                    "200": {"description": "Count of cancelled bookings", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/instructors": {
            "get": {
                "tags": ["Instructors"],
                "summary": "List instructors",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Instructors with pagination", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Instructors"],
                "summary": "Add an instructor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInstructorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created instructor", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/instructors/{id}": {
            "get": {
                "tags": ["Instructors"],
                "summary": "Get instructor detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Instructor", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/instructors/{id}/availability/window": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolve the effective working window for a date",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Resolved window with its source", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/instructors/{id}/availability/weekly": {
            "get": {
                "tags": ["Availability"],
                "summary": "List weekly availability",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Weekly rows", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "put": {
                "tags": ["Availability"],
                "summary": "Replace weekly availability",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PutWeeklyRequest"}}
                ],
                "responses": {
                    "204": {"description": "Replaced"}
                }
            }
        },
        "/instructors/{id}/absences": {
            "get": {
                "tags": ["Availability"],
                "summary": "List absences",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Absence periods", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Record an absence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAbsenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created absence", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/instructors/{id}/absences/{absenceId}": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Remove an absence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "absenceId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/instructors/{id}/roster/export": {
            "get": {
                "tags": ["Instructors"],
                "summary": "Download an instructor's day roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Rendered roster"}
                }
            }
        },
        "/availability/global": {
            "get": {
                "tags": ["Availability"],
                "summary": "List school-wide availability rows",
                "responses": {
                    "200": {"description": "Defaults and special ranges", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "put": {
                "tags": ["Availability"],
                "summary": "Set the school-wide default window for a weekday",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PutGlobalDefaultRequest"}}
                ],
                "responses": {
                    "200": {"description": "Stored row", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/availability/special": {
            "post": {
                "tags": ["Availability"],
                "summary": "Add a date-ranged school-wide override",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSpecialRequest"}}
                ],
                "responses": {
                    "201": {"description": "Stored row", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Overlapping range", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateBookingRequest": {
            "type": "object",
            "required": ["student_id", "instructor_id", "location", "class_type", "duration_minutes", "date", "start_time"],
            "properties": {
                "student_id": {"type": "string"},
                "instructor_id": {"type": "string"},
                "location": {"type": "string"},
                "class_type": {"type": "string", "enum": ["class4", "class5", "class7"]},
                "duration_minutes": {"type": "integer", "enum": [60, 90, 120]},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string", "example": "10:00"},
                "price": {"type": "number"},
                "notes": {"type": "string"},
                "terms_accepted": {"type": "boolean"}
            }
        },
        "ChangeStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["pending", "approved", "completed", "cancelled"]}
            }
        },
        "ChangePaymentStatusRequest": {
            "type": "object",
            "required": ["payment_status"],
            "properties": {
                "payment_status": {"type": "string", "enum": ["requested", "invoice-sent", "approved", "rejected", "completed"]}
            }
        },
        "CancelBookingRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "RescheduleBookingRequest": {
            "type": "object",
            "required": ["instructor_id", "date", "start_time"],
            "properties": {
                "instructor_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string", "example": "14:30"}
            }
        },
        "CreateInstructorRequest": {
            "type": "object",
            "required": ["full_name", "email", "locations", "class_types"],
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "locations": {"type": "array", "items": {"type": "string"}},
                "class_types": {"type": "array", "items": {"type": "string"}}
            }
        },
        "PutWeeklyRequest": {
            "type": "object",
            "required": ["entries"],
            "properties": {
                "entries": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "day_of_week": {"type": "string"},
                            "start_time": {"type": "string"},
                            "end_time": {"type": "string"},
                            "is_available": {"type": "boolean"}
                        }
                    }
                }
            }
        },
        "CreateAbsenceRequest": {
            "type": "object",
            "required": ["start_date", "end_date"],
            "properties": {
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "reason": {"type": "string"}
            }
        },
        "PutGlobalDefaultRequest": {
            "type": "object",
            "required": ["day_of_week"],
            "properties": {
                "day_of_week": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "is_available": {"type": "boolean"}
            }
        },
        "CreateSpecialRequest": {
            "type": "object",
            "required": ["day_of_week", "start_date", "end_date"],
            "properties": {
                "day_of_week": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "is_available": {"type": "boolean"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
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
        "Envelope": {
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
