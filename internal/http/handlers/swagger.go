package handlers

import (
	_ "embed"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openAPISpec []byte

const swaggerUIHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>authbase API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
    <style>
      body { margin: 0; background: #f8fafc; }
      #swagger-ui { max-width: 1200px; margin: 0 auto; }
      .swagger-ui .topbar { display: none; }
    </style>
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: "{{SPEC_URL}}",
        dom_id: "#swagger-ui",
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis],
        layout: "BaseLayout"
      });
    </script>
  </body>
</html>`

// SwaggerUI serves the docs page pointing at specURL.
func SwaggerUI(specURL string) gin.HandlerFunc {
	page := []byte(strings.Replace(swaggerUIHTML, "{{SPEC_URL}}", specURL, 1))

	return func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "text/html; charset=utf-8", page)
	}
}

// OpenAPISpec serves the document with the servers entry rewritten to the
// configured API prefix.
func OpenAPISpec(apiPrefix string) gin.HandlerFunc {
	doc := []byte(strings.Replace(string(openAPISpec), "url: /api", "url: "+apiPrefix, 1))

	return func(ctx *gin.Context) {
		ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", doc)
	}
}
