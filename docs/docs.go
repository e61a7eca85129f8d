// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@threatlens.io"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log out",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"SessionCookie": []}, {"ApiKeyAuth": []}],
                "tags": ["Auth"],
                "summary": "Current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}}}
            }
        },
        "/articles": {
            "get": {
                "security": [{"SessionCookie": []}, {"ApiKeyAuth": []}],
                "tags": ["Articles"],
                "summary": "List articles",
                "parameters": [
                    {"type": "string", "description": "Matches title, summary, content and source name", "name": "search", "in": "query"},
                    {"type": "string", "name": "industry", "in": "query"},
                    {"type": "string", "name": "severity", "in": "query"},
                    {"type": "string", "name": "type", "in": "query"},
                    {"type": "string", "name": "source", "in": "query"},
                    {"type": "string", "name": "threatLevel", "in": "query"},
                    {"type": "string", "name": "threatType", "in": "query"},
                    {"type": "string", "name": "keyword", "in": "query"},
                    {"type": "string", "name": "window", "in": "query"},
                    {"type": "boolean", "name": "hideRead", "in": "query"},
                    {"type": "boolean", "name": "hideSpam", "in": "query"},
                    {"type": "string", "enum": ["newest", "oldest", "title-asc", "title-desc"], "name": "sort", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ArticleListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/articles/{id}/read": {
            "patch": {
                "security": [{"SessionCookie": []}],
                "tags": ["Articles"],
                "summary": "Set or toggle the read flag",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ArticleStateDTO"}}}
            }
        },
        "/articles/export": {
            "post": {
                "security": [{"SessionCookie": []}],
                "tags": ["Articles"],
                "summary": "Export articles",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.ExportDTO"}}}
            }
        },
        "/statistics/{kind}": {
            "get": {
                "security": [{"SessionCookie": []}, {"ApiKeyAuth": []}],
                "tags": ["Statistics"],
                "summary": "Get a statistics report",
                "parameters": [{"type": "string", "enum": ["overview", "sources", "threats"], "name": "kind", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        }
    },
    "definitions": {
        "domain.APIError": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "string"}
            }
        },
        "domain.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "user"]},
                "plan": {"type": "string", "enum": ["simple", "premium"]}
            }
        },
        "domain.ArticleListResponse": {
            "type": "object",
            "properties": {
                "articles": {"type": "array", "items": {"type": "object"}},
                "total": {"type": "integer"}
            }
        },
        "domain.ArticleStateDTO": {
            "type": "object",
            "properties": {
                "articleId": {"type": "string"},
                "read": {"type": "boolean"},
                "saved": {"type": "boolean"},
                "spam": {"type": "boolean"},
                "mirrored": {"type": "boolean"},
                "mirrorError": {"type": "string"}
            }
        },
        "domain.ExportDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "contentType": {"type": "string"},
                "articleCount": {"type": "integer"},
                "sizeBytes": {"type": "integer"},
                "createdAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "description": "API key for system operations",
            "type": "apiKey",
            "name": "x-api-key",
            "in": "header"
        },
        "SessionCookie": {
            "description": "Upstream session cookie",
            "type": "apiKey",
            "name": "session",
            "in": "cookie"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "ThreatLens Dashboard API",
	Description:      "Backend for the threat intelligence dashboard: article feeds, per-user state, sources, keywords and statistics",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
