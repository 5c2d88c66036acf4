// Package swagger registers the generated OpenAPI document. Regenerate with
// `swag init -g cmd/start.go -o docs/swagger` after changing handler
// annotations.
package swagger

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
        "/inventory/diff": {
            "get": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Compute Diff",
                "description": "Compare the source of truth against the database and return the structured diff.",
                "responses": {
                    "200": {
                        "description": "Serialized Diff",
                        "schema": {"type": "object"}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/inventory/sync": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Apply Sync",
                "description": "Compare the source of truth against the database and apply the diff. Pass dry_run=true to stop after the diff.",
                "parameters": [
                    {
                        "type": "boolean",
                        "name": "dry_run",
                        "in": "query",
                        "description": "Compute the diff without applying it"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Run Summary",
                        "schema": {"type": "object"}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Inventory Sync API",
	Description:      "API for diffing and reconciling network inventory.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
