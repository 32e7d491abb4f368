package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"go-online-store/pkg/apierror"
)

// DocsHandler serves the OpenAPI document of the store and a Swagger UI page
// pointing at it. The UI sends same-origin cookies, so a session opened on
// the account pages can try the protected endpoints.
type DocsHandler struct {
	specPath  string
	specRoute string
}

func NewDocsHandler(specPath string, specRoute string) *DocsHandler {
	return &DocsHandler{
		specPath:  strings.TrimSpace(specPath),
		specRoute: specRoute,
	}
}

func (h *DocsHandler) OpenAPI(w http.ResponseWriter, _ *http.Request) {
	if h.specPath == "" {
		writeError(w, apierror.NotFound("API document is not configured", ""))
		return
	}

	content, err := os.ReadFile(h.specPath)
	if err != nil {
		slog.Warn("failed to read API document", "path", h.specPath, "error", err)
		writeError(w, apierror.NotFound("API document not found", ""))
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

var swaggerPage = template.Must(template.New("swagger").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Online Store API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <p style="font-family:sans-serif;margin:1em">Browser session: <a href="/user/login/">log in</a> / <a href="/user/home/">home</a></p>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: {{.SpecRoute}},
        dom_id: '#swagger-ui',
        persistAuthorization: true,
        requestInterceptor: function (req) { req.credentials = 'same-origin'; return req; }
      });
    </script>
  </body>
</html>`))

func (h *DocsHandler) SwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Security-Policy", "default-src 'self'; connect-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data:")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := swaggerPage.Execute(w, struct{ SpecRoute string }{h.specRoute}); err != nil {
		slog.Error("failed to render docs page", "error", err)
	}
}
