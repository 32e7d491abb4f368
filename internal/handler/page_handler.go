package handler

import (
	"encoding/json"
	"html"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"go-online-store/internal/middleware"
	"go-online-store/internal/model"
	"go-online-store/internal/serializer"
	"go-online-store/internal/service"
	"go-online-store/pkg/apierror"
)

const (
	homePath     = "/user/home/"
	loginPath    = "/user/login/"
	registerPath = "/user/register/"
)

// PageHandler serves the browser-facing account pages. Forms and JSON bodies
// are both accepted; the session lives in an HttpOnly access token cookie.
type PageHandler struct {
	auth         *service.AuthService
	users        *service.UserService
	secureCookie bool
}

func NewPageHandler(auth *service.AuthService, users *service.UserService, secureCookie bool) *PageHandler {
	return &PageHandler{auth: auth, users: users, secureCookie: secureCookie}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	name := "anonymous"
	authenticated := false
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		name = claims.Username
		authenticated = true
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"message":       "Hello, " + name,
		"authenticated": authenticated,
	}, nil)
}

func (h *PageHandler) LoginForm(w http.ResponseWriter, _ *http.Request) {
	writeForm(w, "Log in", loginPath, []string{"username", "password"})
}

func (h *PageHandler) RegisterForm(w http.ResponseWriter, _ *http.Request) {
	writeForm(w, "Register", registerPath, []string{"username", "email", "password"})
}

func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	values, err := readPageInput(r)
	if err != nil {
		writeError(w, err)
		return
	}

	payload := model.LoginRequest{
		Username: strings.TrimSpace(values.Get("username")),
		Password: values.Get("password"),
	}
	if err := serializer.Validate(payload); err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.auth.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   int(tokens.ExpiresIn),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	values, err := readPageInput(r)
	if err != nil {
		writeError(w, err)
		return
	}

	changes := model.UserChanges{}
	for field, dst := range map[string]**string{
		"username":   &changes.Username,
		"password":   &changes.Password,
		"email":      &changes.Email,
		"first_name": &changes.FirstName,
		"last_name":  &changes.LastName,
	} {
		if values.Has(field) {
			v := values.Get(field)
			*dst = &v
		}
	}

	if changes.Username == nil || strings.TrimSpace(*changes.Username) == "" || changes.Password == nil || *changes.Password == "" {
		writeError(w, apierror.Validation("invalid input", "username and password are required"))
		return
	}

	if _, err := h.users.Register(r.Context(), actorFromRequest(r), changes); err != nil {
		writeError(w, err)
		return
	}

	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// readPageInput flattens a JSON object or a form body into url.Values.
func readPageInput(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, apierror.Validation("invalid form body", err.Error())
		}
		return r.PostForm, nil
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, apierror.Validation("invalid JSON body", err.Error())
	}

	values := url.Values{}
	for k, v := range body {
		values.Set(k, v)
	}
	return values, nil
}

func writeForm(w http.ResponseWriter, title string, action string, fields []string) {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html>\n  <head><meta charset=\"utf-8\" /><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head>\n  <body>\n    <form method=\"post\" action=\"")
	b.WriteString(html.EscapeString(action))
	b.WriteString("\">\n")
	for _, field := range fields {
		inputType := "text"
		if field == "password" {
			inputType = "password"
		}
		b.WriteString("      <label>" + field + " <input type=\"" + inputType + "\" name=\"" + field + "\" /></label>\n")
	}
	b.WriteString("      <button type=\"submit\">" + html.EscapeString(title) + "</button>\n    </form>\n  </body>\n</html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}
