package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TPAT13 Checker API",
        "description": "Merges bubble-sheet answer exports and scores them against an answer key.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Merges", "description": "Combine per-session answer sheets into one student table"},
        {"name": "Scores", "description": "Score students against an answer key"},
        {"name": "Exports", "description": "Signed downloads of rendered results"},
        {"name": "Templates", "description": "Blank workbooks"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Result store unreachable"}
                }
            }
        },
        "/api/v1/merges": {
            "post": {
                "tags": ["Merges"],
                "summary": "Merge per-session answer sheets",
                "description": "Files are merged in upload order. Question columns of later files are renumbered past the groups already used.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "files", "in": "formData", "type": "file", "required": true, "description": "Answer sheets (.xlsx or .csv), repeatable"},
                    {"name": "idColumn", "in": "formData", "type": "string", "required": false, "description": "Header for the student identifier column"}
                ],
                "responses": {
                    "201": {"description": "Merged", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "No files", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Malformed table", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/merges/{id}": {
            "get": {
                "tags": ["Merges"],
                "summary": "Fetch a merged table",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Merge ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Merges"],
                "summary": "Discard a merged table",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Merge ID"}
                ],
                "responses": {
                    "204": {"description": "Discarded"},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/merges/{id}/exports": {
            "post": {
                "tags": ["Merges"],
                "summary": "Render a merged table for download",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Merge ID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Signed link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/scores": {
            "post": {
                "tags": ["Scores"],
                "summary": "Score students against an answer key",
                "description": "Students come from a stored merge (mergeId) or an uploaded file (students).",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "answerKey", "in": "formData", "type": "file", "required": true, "description": "Answer key (.xlsx or .csv)"},
                    {"name": "students", "in": "formData", "type": "file", "required": false, "description": "Student answers (.xlsx or .csv)"},
                    {"name": "mergeId", "in": "formData", "type": "string", "required": false, "description": "Stored merge ID"},
                    {"name": "questionColumn", "in": "formData", "type": "string", "required": false, "description": "Question number column of the answer key"},
                    {"name": "reward", "in": "formData", "type": "number", "required": false, "description": "Points per correct selection, default 100 / answer slots"},
                    {"name": "penalty", "in": "formData", "type": "number", "required": false, "description": "Points per incorrect or duplicate selection, default -3"}
                ],
                "responses": {
                    "201": {"description": "Scored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Merge not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Answer key rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/scores/{id}": {
            "get": {
                "tags": ["Scores"],
                "summary": "Fetch a score result",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Score ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Scores"],
                "summary": "Discard a score result",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Score ID"}
                ],
                "responses": {
                    "204": {"description": "Discarded"},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/scores/{id}/exports": {
            "post": {
                "tags": ["Scores"],
                "summary": "Render a score result for download",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true, "description": "Score ID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Signed link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/templates/answer-key": {
            "get": {
                "tags": ["Templates"],
                "summary": "Download a blank answer key workbook",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "questions", "in": "query", "type": "integer", "required": false, "description": "Number of questions (1-200)"},
                    {"name": "slots", "in": "query", "type": "integer", "required": false, "description": "Answer slots per question (1-10)"}
                ],
                "responses": {
                    "200": {"description": "Workbook", "schema": {"type": "file"}},
                    "400": {"description": "Invalid query", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a rendered export via signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true, "description": "Signed token"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "404": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "xlsx", "pdf"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object", "description": "Offending file, row, question or column when known"}
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
