package main

import (
	"fmt"
	"html"
	"net/http"

	"github.com/casekit/authcore/middleware"
	"github.com/go-chi/chi/v5"
)

// registerPages mounts the application pages behind the session gate. The
// public pages here are placeholders for the case-management frontend; a
// real deployment replaces them with its own templates or SPA handler.
func registerPages(r chi.Router) {
	r.Get("/login", staticPage("Sign in"))
	r.Get("/signup", staticPage("Create account"))
	r.Get("/forgot-password", staticPage("Forgot password"))
	r.Get("/reset-password", staticPage("Choose a new password"))
	r.Get("/verify-email", staticPage("Verify your email"))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	r.Get("/dashboard", func(w http.ResponseWriter, req *http.Request) {
		sess, ok := middleware.SessionFromContext(req.Context())
		if !ok {
			http.Error(w, "no session", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<h1>Dashboard</h1><p>Signed in as %s</p>", html.EscapeString(sess.Email))
	})
}

func staticPage(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<h1>%s</h1>", title)
	}
}
