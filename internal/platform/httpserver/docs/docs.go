// Package docs registers the ccdepot OpenAPI document with swag so the
// swagger UI at /swagger/ can serve it.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/items": {
            "get": {
                "tags": ["creative-commons"],
                "summary": "List repository items",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "collection_id", "in": "query"},
                    {"type": "boolean", "name": "licensed_only", "in": "query"},
                    {"type": "string", "name": "cursor", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/items/{item_id}": {
            "get": {
                "tags": ["creative-commons"],
                "summary": "Get item",
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/ItemID"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/items/{item_id}/license": {
            "get": {
                "tags": ["creative-commons"],
                "summary": "Get item license status",
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/ItemID"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["creative-commons"],
                "summary": "Upload license content",
                "description": "The Content-Type picks license_rdf (text/xml, text/rdf) or license_text.",
                "consumes": ["*/*"],
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/ItemID"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Licensing disabled", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["creative-commons"],
                "summary": "Remove license bitstreams",
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/ItemID"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/items/{item_id}/license/rdf": {
            "get": {
                "tags": ["creative-commons"],
                "summary": "Get license RDF",
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/ItemID"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["creative-commons"],
                "summary": "Set license from RDF",
                "consumes": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/ItemID"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetLicenseRDFRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/items/{item_id}/license/bitstreams/{name}": {
            "get": {
                "tags": ["creative-commons"],
                "summary": "Download license bitstream",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/ItemID"},
                    {"type": "string", "name": "name", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}
            }
        },
        "/v1/items/{item_id}/license/fields": {
            "post": {
                "tags": ["creative-commons"],
                "summary": "Apply license fields",
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/ItemID"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyLicenseRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["creative-commons"],
                "summary": "Remove license fields",
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"$ref": "#/parameters/ItemID"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/license-fields/{field_id}": {
            "get": {
                "tags": ["creative-commons"],
                "summary": "Resolve a license field",
                "parameters": [{"type": "string", "name": "field_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/license-rdf/extract": {
            "post": {
                "tags": ["creative-commons"],
                "summary": "Extract license RDF",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FetchLicenseRDFRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/authz/check": {
            "post": {"tags": ["authorization"], "summary": "Check permission", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/authz/check-batch": {
            "post": {"tags": ["authorization"], "summary": "Check several permissions", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/authz/roles": {
            "get": {"tags": ["authorization"], "summary": "List roles", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/authz/users/{user_id}/roles": {
            "get": {"tags": ["authorization"], "summary": "List user roles", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["authorization"], "summary": "Grant role", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/authz/users/{user_id}/roles/revoke": {
            "post": {"tags": ["authorization"], "summary": "Revoke role", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/authz/users/{user_id}/permissions": {
            "get": {"tags": ["authorization"], "summary": "List effective permissions", "responses": {"200": {"description": "OK"}}}
        },
        "/v1/scripts": {
            "get": {"tags": ["scripts"], "summary": "List scripts", "parameters": [{"$ref": "#/parameters/UserID"}], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/scripts/{script}/processes": {
            "post": {
                "tags": ["scripts"],
                "summary": "Start script process",
                "parameters": [
                    {"$ref": "#/parameters/UserID"},
                    {"type": "string", "name": "script", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "503": {"description": "Executor saturated", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/v1/processes": {
            "get": {"tags": ["scripts"], "summary": "List processes", "parameters": [{"$ref": "#/parameters/UserID"}], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/processes/{process_id}": {
            "get": {"tags": ["scripts"], "summary": "Get process", "parameters": [{"$ref": "#/parameters/UserID"}], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/processes/{process_id}/output": {
            "get": {"tags": ["scripts"], "summary": "Download process output", "parameters": [{"$ref": "#/parameters/UserID"}], "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}}
        },
        "/v1/processes/{process_id}/cancel": {
            "post": {"tags": ["scripts"], "summary": "Cancel process", "parameters": [{"$ref": "#/parameters/UserID"}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "parameters": {
        "UserID": {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
        "ItemID": {"type": "string", "name": "item_id", "in": "path", "required": true}
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "SetLicenseRDFRequest": {
            "type": "object",
            "properties": {"license_rdf": {"type": "string"}}
        },
        "ApplyLicenseRequest": {
            "type": "object",
            "properties": {
                "license_uri": {"type": "string"},
                "license_name": {"type": "string"},
                "document": {"type": "string"}
            }
        },
        "FetchLicenseRDFRequest": {
            "type": "object",
            "properties": {"document": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ccdepot API",
	Description:      "Creative Commons licensing, authorization and batch scripts for repository items.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
