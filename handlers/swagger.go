package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>cloudkitchen API - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "cloudkitchen", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Document": { "type": "object", "additionalProperties": true },
      "InsertAck": { "type": "object", "properties": { "acknowledged": {"type":"boolean"}, "insertedId": {"type":"string"} } },
      "UpdateAck": { "type": "object", "properties": { "acknowledged": {"type":"boolean"}, "matchedCount": {"type":"integer"}, "modifiedCount": {"type":"integer"}, "upsertedCount": {"type":"integer"}, "upsertedId": {"type":"string","nullable":true} } },
      "DeleteAck": { "type": "object", "properties": { "acknowledged": {"type":"boolean"}, "deletedCount": {"type":"integer"} } }
    }
  },
  "paths": {
    "/jwt": {
      "post": { "summary": "Sign the body as token claims", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Document"}}}}, "responses": { "200": { "description": "token returned" }, "400": { "description": "body is not a JSON object" } } }
    },
    "/jwt/revoke": {
      "post": { "summary": "Revoke the presented bearer token", "security": [{"bearer": []}], "responses": { "200": { "description": "revoked" }, "401": { "description": "unauthorized access" } } }
    },
    "/services": {
      "get": { "summary": "List services", "parameters": [{"name":"datasize","in":"query","schema":{"type":"integer","minimum":0}}], "responses": { "200": { "description": "array of services" }, "400": { "description": "invalid datasize" } } },
      "post": { "summary": "Create a service", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Document"}}}}, "responses": { "200": { "description": "insert acknowledgement", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/InsertAck"}}} } } }
    },
    "/services/{id}": {
      "get": { "summary": "Get a service", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "service or null" }, "400": { "description": "invalid id" } } }
    },
    "/reviews": {
      "get": { "summary": "List reviews", "responses": { "200": { "description": "array of reviews" } } },
      "post": { "summary": "Create a review", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Document"}}}}, "responses": { "200": { "description": "insert acknowledgement", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/InsertAck"}}} } } }
    },
    "/reviews/{id}": {
      "get": { "summary": "Get a review", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "review or null" } } },
      "patch": { "summary": "Overwrite review fields", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "update acknowledgement", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/UpdateAck"}}} } } },
      "delete": { "summary": "Delete a review", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "delete acknowledgement", "content": {"application/json": {"schema": {"$ref":"#/components/schemas/DeleteAck"}}} } } }
    },
    "/reviews-help/{id}": {
      "patch": { "summary": "Increment review counters", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "update acknowledgement" } } }
    },
    "/reviews-abuse/{id}": {
      "patch": { "summary": "Increment review counters", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "update acknowledgement" } } }
    },
    "/service-reviews/{serviceID}": {
      "get": { "summary": "Reviews of one service, newest first", "parameters": [{"name":"serviceID","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "array of reviews" } } }
    },
    "/user-reviews/{userID}": {
      "get": { "summary": "Reviews written by the caller, newest first", "security": [{"bearer": []}], "parameters": [{"name":"userID","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "array of reviews" }, "401": { "description": "unauthorized access" }, "403": { "description": "forbidden access" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
