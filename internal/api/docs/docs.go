// Package docs registers the admin API's swagger spec with swaggo so
// /swagger/*any can serve it. Hand-maintained rather than generated by
// `swag init`; keep it in sync with the @-annotations in internal/api/handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/stats": {
            "get": {
                "tags": ["system"],
                "summary": "Server statistics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/hosts": {
            "get": {
                "tags": ["hosts"],
                "summary": "List host table entries",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds the exported swagger spec metadata, in the shape
// swag's generated docs.go files use.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "FoxDNS Admin API",
	Description:      "Read-only status and diagnostics API for a running relay instance.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
