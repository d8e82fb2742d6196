// Package docs registers the OpenAPI document served at /api/v1/swagger.json.
// Regenerate with `swag init -g cmd/main.go` after changing handler annotations.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "DeviceKey": {"type": "apiKey", "name": "X-Device-Key", "in": "header"}
    },
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "503": {"description": "Password login disabled"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Log out", "responses": {"204": {"description": "No Content"}}}},
        "/auth/session": {"get": {"tags": ["auth"], "summary": "Current session", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/anomalies": {"get": {"tags": ["anomalies"], "summary": "List anomaly alerts", "security": [{"BearerAuth": []}], "parameters": [
            {"type": "string", "name": "status", "in": "query"},
            {"type": "string", "name": "severity", "in": "query"},
            {"type": "integer", "name": "limit", "in": "query"},
            {"type": "string", "name": "from", "in": "query"},
            {"type": "string", "name": "to", "in": "query"}
        ], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "patch": {"tags": ["anomalies"], "summary": "Update an alert", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/camera": {"get": {"tags": ["camera"], "summary": "List camera images", "security": [{"BearerAuth": []}], "parameters": [
            {"type": "boolean", "name": "withDetections", "in": "query"},
            {"type": "boolean", "name": "latest", "in": "query"},
            {"type": "integer", "name": "limit", "in": "query"},
            {"type": "string", "name": "from", "in": "query"},
            {"type": "string", "name": "to", "in": "query"}
        ], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["camera"], "summary": "Get a camera image", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/camera/capture": {"post": {"tags": ["camera"], "summary": "Record a camera capture", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/camera/frames": {"post": {"tags": ["camera"], "summary": "Upload a frame", "consumes": ["multipart/form-data"], "security": [{"DeviceKey": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}},
        "/camera/frames/{path}": {"get": {"tags": ["camera"], "summary": "Download a frame", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "path", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/sensors": {"get": {"tags": ["sensors"], "summary": "List sensor readings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["sensors"], "summary": "Record a sensor reading", "security": [{"DeviceKey": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/sensors/aggregates": {"get": {"tags": ["sensors"], "summary": "Aggregate sensor readings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/settings/camera": {"get": {"tags": ["settings"], "summary": "Get camera settings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["settings"], "summary": "Save camera settings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/robot/camera": {"get": {"tags": ["robot"], "summary": "Live camera frame", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "500": {"description": "Device unreachable"}}}},
        "/robot/gps": {"get": {"tags": ["robot"], "summary": "Live GPS fix", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "500": {"description": "Device unreachable"}}}},
        "/stream/alerts": {"get": {"tags": ["stream"], "summary": "Live alert stream (websocket)", "security": [{"BearerAuth": []}], "responses": {"101": {"description": "Switching Protocols"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "RoboWatch Hub API",
	Description:      "Monitoring backend for a field robot: sensor telemetry, camera detections, anomaly alerts and device settings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
