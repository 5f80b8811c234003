// Package docs registers the OpenAPI document served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/classify": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["classification"],
                "summary": "Classify messages",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/handler.ClassifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ClassifyResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List upload jobs",
                "parameters": [
                    {"type": "string", "description": "Tenant ID", "name": "tenant", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.UploadJob"}}}
                }
            }
        },
        "/jobs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get upload job",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.UploadJob"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/jobs/{id}/errors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get upload job errors",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/tenants/{tenant}/datasets/{type}": {
            "get": {
                "produces": ["text/csv"],
                "tags": ["datasets"],
                "summary": "Download records",
                "parameters": [
                    {"type": "string", "description": "Tenant ID", "name": "tenant", "in": "path", "required": true},
                    {"enum": ["awards", "employees", "departments"], "type": "string", "description": "Record type", "name": "type", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "CSV text", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["text/csv"],
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Upload records",
                "parameters": [
                    {"type": "string", "description": "Tenant ID", "name": "tenant", "in": "path", "required": true},
                    {"enum": ["awards", "employees", "departments"], "type": "string", "description": "Record type", "name": "type", "in": "path", "required": true},
                    {"type": "string", "description": "Comma separated transformations", "name": "transformations", "in": "query"},
                    {"in": "body", "name": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pipeline.UploadResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/tenants/{tenant}/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "List runs",
                "parameters": [
                    {"type": "string", "description": "Tenant ID", "name": "tenant", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.RunInfo"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Save run",
                "parameters": [
                    {"type": "string", "description": "Tenant ID", "name": "tenant", "in": "path", "required": true},
                    {"in": "body", "name": "run", "required": true, "schema": {"$ref": "#/definitions/handler.RunRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.RunInfo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/tenants/{tenant}/compare": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Compare runs",
                "parameters": [
                    {"type": "string", "description": "Tenant ID", "name": "tenant", "in": "path", "required": true},
                    {"type": "string", "description": "Comma separated run names", "name": "runs", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ComparisonData"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.ClassifyRequest": {
            "type": "object",
            "properties": {
                "taxonomy": {"type": "object"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/model.Message"}}
            }
        },
        "handler.ClassifyResponse": {
            "type": "object",
            "properties": {
                "classifications": {"type": "array", "items": {"$ref": "#/definitions/model.Classification"}},
                "count": {"type": "integer"}
            }
        },
        "handler.RunRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "taxonomy": {"type": "object"},
                "classifications": {"type": "object"},
                "summary": {"type": "object"}
            }
        },
        "model.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "body": {"type": "string"}
            }
        },
        "model.Classification": {
            "type": "object",
            "properties": {
                "message_id": {"type": "string"},
                "category": {"type": "string"},
                "subcategory": {"type": "string"},
                "confidence": {"type": "number"},
                "score": {"type": "integer"},
                "matched": {"type": "boolean"}
            }
        },
        "model.RunInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "model.UploadJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "tenant": {"type": "string"},
                "record_type": {"type": "string"},
                "status": {"type": "string"},
                "metrics": {"type": "object"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "model.ComparisonData": {
            "type": "object",
            "properties": {
                "runs": {"type": "array", "items": {"type": "string"}},
                "scores": {"type": "array", "items": {"type": "object"}},
                "category_overlap": {"type": "array", "items": {"type": "object"}},
                "taxonomy_diff": {"type": "array", "items": {"type": "object"}},
                "radar": {"type": "array", "items": {"type": "object"}}
            }
        },
        "pipeline.UploadResult": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "tenant": {"type": "string"},
                "record_type": {"type": "string"},
                "metrics": {"type": "object"},
                "warnings": {"type": "array", "items": {"type": "object"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Recognition Pipeline API",
	Description:      "Merge HR recognition records, classify award messages and compare classification runs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
