package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
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
    <title>insightboard API - Swagger</title>
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
  "info": { "title": "insightboard", "version": "v0.1.0" },
  "components": {
    "securitySchemes": { "sessionCookie": { "type": "apiKey", "in": "cookie", "name": "auth_token" } }
  },
  "paths": {
    "/api/auth/github/login": {
      "get": { "summary": "Redirect to the GitHub authorize page", "responses": { "302": { "description": "redirect to GitHub" } } }
    },
    "/api/auth/github/callback": {
      "get": {
        "summary": "OAuth callback: exchange code, store credential, set session cookie",
        "parameters": [
          { "name": "code", "in": "query", "required": true, "schema": { "type": "string" } },
          { "name": "state", "in": "query", "required": false, "schema": { "type": "string" } }
        ],
        "responses": { "302": { "description": "redirect to dashboard or login failure page" }, "400": { "description": "no code provided" } }
      }
    },
    "/api/auth/logout": {
      "post": { "summary": "Clear the session cookie", "responses": { "200": { "description": "logged out" } } }
    },
    "/api/metrics": {
      "get": {
        "summary": "Cached metrics of the caller",
        "security": [ { "sessionCookie": [] } ],
        "responses": {
          "200": { "description": "metric key to value map, or a processing message when the cache is empty" },
          "401": { "description": "missing or invalid session" },
          "500": { "description": "server error" }
        }
      }
    },
    "/api/me": {
      "get": { "summary": "Identity of the caller", "security": [ { "sessionCookie": [] } ], "responses": { "200": { "description": "user id and username" }, "401": { "description": "missing or invalid session" } } }
    },
    "/api/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
