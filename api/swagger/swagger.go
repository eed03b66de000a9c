package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Import API",
        "description": "Bulk onboarding of teachers, students and parents from spreadsheets, plus historical marks.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Import", "description": "Teacher and student onboarding uploads"},
        {"name": "HistoricalMarks", "description": "Marks earned in earlier grades"}
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
                    "200": {"description": "Ready, or degraded when the stats cache is unreachable"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/api/import": {
            "get": {
                "tags": ["Import"],
                "summary": "Entity counts shown next to the import form",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ImportStatsEnvelope"}}
                }
            },
            "post": {
                "tags": ["Import"],
                "summary": "Import teachers or students from a spreadsheet",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "importType", "in": "formData", "type": "string", "enum": ["teachers", "students"], "required": true},
                    {"name": "clearExisting", "in": "formData", "type": "boolean"},
                    {"name": "reportFormat", "in": "formData", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Every row imported or skipped", "schema": {"$ref": "#/definitions/ImportResultEnvelope"}},
                    "207": {"description": "At least one row failed", "schema": {"$ref": "#/definitions/ImportResultEnvelope"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthenticated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Not an xlsx workbook", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Batch aborted", "schema": {"$ref": "#/definitions/ImportResultEnvelope"}}
                }
            }
        },
        "/api/import/reports/{token}": {
            "get": {
                "tags": ["Import"],
                "summary": "Download the problem-row report of an import",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "404": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/historical-marks/import": {
            "get": {
                "tags": ["HistoricalMarks"],
                "summary": "Download the historical-marks template of a class",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string", "required": true},
                    {"name": "historicalGrade", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "xlsx template"},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["HistoricalMarks"],
                "summary": "Import historical marks for a class",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "termName", "in": "formData", "type": "string", "required": true},
                    {"name": "classId", "in": "formData", "type": "string", "required": true},
                    {"name": "historicalGrade", "in": "formData", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/HistoricalMarkResultEnvelope"}},
                    "207": {"description": "At least one row failed", "schema": {"$ref": "#/definitions/HistoricalMarkResultEnvelope"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RowError": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "data": {"type": "object", "additionalProperties": {"type": "string"}},
                "error": {"type": "string"}
            }
        },
        "SkippedRow": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "data": {"type": "object", "additionalProperties": {"type": "string"}},
                "reason": {"type": "string"}
            }
        },
        "RowWarning": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "DeletedUsers": {
            "type": "object",
            "properties": {
                "teachers": {"type": "integer"},
                "students": {"type": "integer"},
                "parents": {"type": "integer"}
            }
        },
        "ImportResult": {
            "type": "object",
            "properties": {
                "importType": {"type": "string"},
                "totalRows": {"type": "integer"},
                "successfulImports": {"type": "integer"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/RowError"}},
                "skipped": {"type": "array", "items": {"$ref": "#/definitions/SkippedRow"}},
                "warnings": {"type": "array", "items": {"$ref": "#/definitions/RowWarning"}},
                "deletedUsers": {"$ref": "#/definitions/DeletedUsers"},
                "reportUrl": {"type": "string"}
            }
        },
        "ImportStats": {
            "type": "object",
            "properties": {
                "teachers": {"type": "integer"},
                "students": {"type": "integer"},
                "parents": {"type": "integer"},
                "classes": {"type": "integer"},
                "grades": {"type": "integer"},
                "subjects": {"type": "integer"}
            }
        },
        "HistoricalMarkImportResult": {
            "type": "object",
            "properties": {
                "stats": {
                    "type": "object",
                    "properties": {
                        "totalRows": {"type": "integer"},
                        "processed": {"type": "integer"},
                        "skipped": {"type": "integer"},
                        "errors": {"type": "integer"}
                    }
                },
                "errors": {"type": "array", "items": {"$ref": "#/definitions/RowError"}},
                "termId": {"type": "string"},
                "marksSaved": {"type": "integer"}
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
        },
        "ImportResultEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ImportResult"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "ImportStatsEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ImportStats"},
                "meta": {"type": "object"}
            }
        },
        "HistoricalMarkResultEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/HistoricalMarkImportResult"},
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
