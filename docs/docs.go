// Package docs registers the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/config": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Config"],
                "summary": "Game configuration",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ConfigResponse"}}}
            }
        },
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Register a player",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in with a token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UserResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/elements/base": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Elements"],
                "summary": "List base elements",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ElementsResponse"}}}
            }
        },
        "/elements/discovered": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Elements"],
                "summary": "List discovered elements",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ElementsResponse"}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/elements/{id}/details": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Elements"],
                "summary": "Element details",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/craft": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Craft"],
                "summary": "Craft two elements",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CraftRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CraftResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/guess/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Guess"],
                "summary": "Player's guess history",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/guess/{seed}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Guess"],
                "summary": "Get (or create today's) question",
                "parameters": [{"type": "string", "name": "seed", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/guess/{id}/submit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Guess"],
                "summary": "Guess a character",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SubmitRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/guess/{id}/batch-submit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Guess"],
                "summary": "Guess several characters",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.BatchSubmitRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/reload": {
            "post": {
                "security": [{"AdminKey": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Reload presets",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/guess/generate": {
            "post": {
                "security": [{"AdminKey": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Generate a question for a seed",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/guess/batch-generate": {
            "post": {
                "security": [{"AdminKey": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Generate questions for several seeds",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/guess/questions": {
            "get": {
                "security": [{"AdminKey": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List questions (paginated)",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handlers.ConfigResponse": {
            "type": "object",
            "properties": {
                "languageMode": {"type": "string", "example": "both"},
                "craftOrderMatters": {"type": "boolean"}
            }
        },
        "handlers.RegisterRequest": {
            "type": "object",
            "properties": {"username": {"type": "string", "example": "alice"}}
        },
        "handlers.LoginRequest": {
            "type": "object",
            "properties": {"token": {"type": "string", "example": "A1B2C3"}}
        },
        "handlers.UserResponse": {
            "type": "object",
            "properties": {
                "user": {
                    "type": "object",
                    "properties": {
                        "id": {"type": "string"},
                        "username": {"type": "string"},
                        "token": {"type": "string"}
                    }
                }
            }
        },
        "handlers.ElementsResponse": {
            "type": "object",
            "properties": {"elements": {"type": "array", "items": {"$ref": "#/definitions/domain.Element"}}}
        },
        "handlers.CraftRequest": {
            "type": "object",
            "properties": {
                "firstElementId": {"type": "string", "example": "base_water"},
                "secondElementId": {"type": "string", "example": "base_fire"}
            }
        },
        "handlers.CraftResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "element": {"$ref": "#/definitions/domain.Element"},
                "isNew": {"type": "boolean"}
            }
        },
        "handlers.SubmitRequest": {
            "type": "object",
            "properties": {"character": {"type": "string"}}
        },
        "handlers.BatchSubmitRequest": {
            "type": "object",
            "properties": {"characters": {"type": "array", "items": {"type": "string"}}}
        },
        "domain.Element": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name_cn": {"type": "string"},
                "name_en": {"type": "string"},
                "emoji": {"type": "string"},
                "is_base": {"type": "boolean"},
                "discoverer_id": {"type": "string"},
                "discoverer_name": {"type": "string"},
                "discovered_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "AdminKey": {"description": "Admin key: \"Bearer <ADMIN_KEY>\".", "type": "apiKey", "name": "Authorization", "in": "header"},
        "BearerAuth": {"description": "Player token: \"Bearer <token>\".", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Infinite Crafting API",
	Description:      "Alchemy crafting game backed by a language model, plus a daily guess-word game.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
