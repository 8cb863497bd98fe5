package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>collabwrite — Swagger</title>
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

// Minimal OpenAPI document describing the REST surface. The realtime
// websocket endpoint is listed informationally only.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "collabwrite", "version": "v0.1.0" },
  "paths": {
    "/api/auth/register": {
      "post": { "summary": "Create an account", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "201": { "description": "tokens returned" }, "409": { "description": "email already registered" } } }
    },
    "/api/auth/login": {
      "post": { "summary": "Password login", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" } } }
    },
    "/api/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/api/auth/logout": {
      "post": { "summary": "Logout and invalidate refresh token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/documents": {
      "get": { "summary": "List documents visible to the user", "responses": { "200": { "description": "document list" } } },
      "post": { "summary": "Create a document", "responses": { "201": { "description": "created" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Fetch a document", "responses": { "200": { "description": "document" }, "403": { "description": "access denied" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update title and/or content", "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete a document (owner only)", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/documents/{id}/share": {
      "post": { "summary": "Grant a user viewer or editor access", "responses": { "200": { "description": "updated grants" } } }
    },
    "/api/documents/{id}/share-link": {
      "post": { "summary": "Mint a share token", "responses": { "200": { "description": "token" } } }
    },
    "/api/documents/share/{token}": {
      "get": { "summary": "Resolve a share token to id and title", "responses": { "200": { "description": "resolved" }, "404": { "description": "unknown token" } } }
    },
    "/realtime": { "get": { "summary": "Websocket endpoint for collaborative editing sessions", "responses": { "101": { "description": "switching protocols" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
