package views

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// renderString renders c into a string. Rendering errors yield "".
func renderString(ctx context.Context, c templ.Component) string {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return ""
	}
	return sb.String()
}

// Layout wraps body in the page skeleton. The logout link is shown when
// user is not empty.
func Layout(title, user string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s - s2console</title>
<link rel="icon" href="/favicon.ico" type="image/svg+xml">
<link rel="stylesheet" href="/static/app.css">
</head>
<body>
%s
<header class="topbar"><a href="/"><strong>s2console</strong></a>`,
			esc(title), renderString(ctx, SkipToContent())); err != nil {
			return err
		}
		if user != "" {
			if _, err := fmt.Fprintf(w, `<span>%s <a href="/logout">%s<span class="sr-only">Log out</span></a></span>`,
				esc(user), renderString(ctx, Icon("log-out"))); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, `</header>
<main id="main-content">`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, `</main>
</body>
</html>`)
		return err
	})
}

// LoginPage renders the login form. next is the page to go back to after a
// successful login.
func LoginPage(action, next, message string) templ.Component {
	return Layout("Login", "", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprint(w, `<h1>Login</h1>`); err != nil {
			return err
		}
		if err := Alert(message).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<form class="card" method="post" action="%s">
	<input type="hidden" name="next" value="%s">
	<p><label for="username">User</label><br><input type="text" id="username" name="username" autocomplete="username" required></p>
	<p><label for="password">Password</label><br><input type="password" id="password" name="password" autocomplete="current-password" required></p>
	<button type="submit">Log in</button>
</form>`, esc(action), esc(next))
		return err
	}))
}

// ErrorPage renders a full page holding message.
func ErrorPage(user, message string) templ.Component {
	return Layout("Error", user, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprint(w, `<h1>Error</h1>`); err != nil {
			return err
		}
		if err := Alert(message).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, `<p><a href="/">Back to buckets</a></p>`)
		return err
	}))
}

// HandlerError writes the error page with the given status code.
func HandlerError(w http.ResponseWriter, r *http.Request, status int, user, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = ErrorPage(user, message).Render(r.Context(), w)
}
