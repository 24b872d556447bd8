// Package docs holds the OpenAPI description of the HTTP transport, in the
// layout swag init produces. It registers itself with swag on import.
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
        "/turn": {
            "post": {
                "description": "Accepts one spoken or tapped turn, resolves domain and target,\ninvokes the renderer for the selected route and returns its answer.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["turns"],
                "summary": "Handle a turn",
                "parameters": [
                    {
                        "description": "Turn",
                        "name": "turn",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/message.Turn"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Response for the sender",
                        "schema": {"$ref": "#/definitions/message.Response"}
                    },
                    "400": {"description": "Invalid request body", "schema": {"type": "string"}},
                    "500": {"description": "Internal processing error", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "message.Event": {
            "type": "object",
            "properties": {
                "arg1": {"type": "string"},
                "arg2": {"type": "string"},
                "arg3": {"type": "string"}
            }
        },
        "message.Slots": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "device": {"type": "string"},
                "room": {"type": "string"},
                "object": {"type": "string"},
                "scene": {"type": "string"},
                "number": {"type": "string"},
                "percent": {"type": "string"},
                "catch_all": {"type": "string"}
            }
        },
        "message.Turn": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "device_id": {"type": "string"},
                "launch": {"type": "boolean"},
                "rich_display": {"type": "boolean"},
                "intent": {"type": "string"},
                "slots": {"$ref": "#/definitions/message.Slots"},
                "event": {"$ref": "#/definitions/message.Event"},
                "reply_to": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "message.Response": {
            "type": "object",
            "properties": {
                "turn_id": {"type": "string"},
                "route": {"type": "string"},
                "domain": {"type": "string"},
                "device": {"type": "string"},
                "room": {"type": "string"},
                "speech": {"type": "string"},
                "reprompt": {"type": "string"},
                "card": {"type": "object"},
                "apl": {"type": "object"},
                "directives": {"type": "array", "items": {"type": "object"}},
                "end_session": {"type": "boolean"},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "roomcall API",
	Description:      "Rule-based voice and touch turn resolution for home automation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
