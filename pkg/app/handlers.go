package app

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/sgaunet/s2console/pkg/dto"
	"github.com/sgaunet/s2console/pkg/health"
	"github.com/sgaunet/s2console/pkg/listing"
	"github.com/sgaunet/s2console/pkg/prefs"
	"github.com/sgaunet/s2console/pkg/remote"
	"github.com/sgaunet/s2console/pkg/views"
)

// BucketList shows the buckets of the backend.
func (s *App) BucketList(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lockSession(w, r)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	ctrl, pending, ok := mountListing(s, w, r, sess, "", func(g listing.SessionGuard) *listing.Controller[dto.Bucket] {
		return listing.New(listing.Config[dto.Bucket]{
			Resource: remote.ResourceBucket,
			Limits:   s.cfg.Buckets.Limits,
			Defaults: listing.Preferences{Limit: s.cfg.Buckets.Limit, Pattern: s.cfg.Buckets.Pattern},
			Level:    s.cfg.Buckets.Level,
			Fetcher:  s.backend.Buckets(),
			Store:    prefs.NewScoped(s.prefs, sess.user.Name),
			Guard:    g,
			Logger:   s.log,
		})
	})
	if !ok {
		return
	}

	state, status := runActions(r, ctrl, pending)
	s.render(w, r, status, views.BucketsPage(views.ListingPage[dto.Bucket]{
		Title:  "Buckets",
		User:   sess.user.Name,
		Action: "/",
		Limits: ctrl.Limits(),
		State:  state,
	}))
}

// FileList shows the files of one bucket.
func (s *App) FileList(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lockSession(w, r)
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	bucket := mux.Vars(r)["bucket"]
	ctrl, pending, ok := mountListing(s, w, r, sess, bucket, func(g listing.SessionGuard) *listing.Controller[dto.File] {
		return listing.New(listing.Config[dto.File]{
			Resource: remote.ResourceFile,
			Limits:   s.cfg.Files.Limits,
			Defaults: listing.Preferences{Limit: s.cfg.Files.Limit, Pattern: s.cfg.Files.Pattern},
			Level:    s.cfg.Files.Level,
			Fetcher:  s.backend.Files(),
			Store:    prefs.NewScoped(s.prefs, sess.user.Name),
			Guard:    g,
			Logger:   s.log,
		})
	})
	if !ok {
		return
	}

	state, status := runActions(r, ctrl, pending)
	s.render(w, r, status, views.FilesPage(views.ListingPage[dto.File]{
		Title:  "Files of " + bucket,
		User:   sess.user.Name,
		Action: (&url.URL{Path: "/files/" + bucket}).EscapedPath(),
		Limits: ctrl.Limits(),
		State:  state,
	}))
}

// mountListing returns the listing of sess for scope, mounting a new one
// built by build when the session shows something else. pending is the first
// request of a fresh mount. ok is false when the session guard answered the
// request.
func mountListing[T any](
	s *App, w http.ResponseWriter, r *http.Request, sess *session, scope string,
	build func(listing.SessionGuard) *listing.Controller[T],
) (ctrl *listing.Controller[T], pending *listing.Request, ok bool) {
	ctx := r.Context()
	if c, same := sess.view.(*listing.Controller[T]); same && c.Mounted() && sess.scope == scope {
		return c, nil, true
	}

	if err := sess.unmount(ctx); err != nil {
		s.log.Warn("Cannot unmount listing", slog.String("session", sess.id), slog.String("error", err.Error()))
	}

	g := &requestGuard{w: w, r: r, user: &sess.user, loginURL: s.cfg.LoginURL}
	c := build(g)
	req := c.Initialize(ctx, scope)
	if g.handled {
		if err := c.Teardown(ctx); err != nil {
			s.log.Debug("Teardown after guard refusal", slog.String("error", err.Error()))
		}
		return nil, nil, false
	}
	sess.view = c
	sess.scope = scope
	return c, &req, true
}

// runActions applies the query string actions to ctrl and executes the last
// request issued. Earlier requests of the same call are superseded by it.
func runActions[T any](r *http.Request, ctrl *listing.Controller[T], pending *listing.Request) (listing.State[T], int) {
	last := pending
	actions, invalid := ParseListingParams(r)

	if invalid == nil {
		if pending != nil && !actions.Empty() {
			// A fresh mount loads its first page before the actions so that
			// page numbers are resolved against a known total.
			ctrl.Do(r.Context(), *pending)
			last = nil
		}
		if actions.Pattern != nil {
			req := ctrl.SetPattern(*actions.Pattern)
			last = &req
		}
		if actions.Limit != nil {
			req, err := ctrl.SetLimit(*actions.Limit)
			if err != nil {
				invalid = err
			} else {
				last = &req
			}
		}
		if actions.Page > 0 {
			if last != nil {
				// Page numbers are resolved against the total of the new
				// pattern and limit.
				ctrl.Do(r.Context(), *last)
				last = nil
			}
			p := ctrl.Pager()
			req := p.Page(ValidatePageNumber(actions.Page, p.Info().TotalPages))
			last = &req
		}
		if actions.Offset != nil {
			req := ctrl.SetOffset(*actions.Offset)
			last = &req
		}
		if actions.Refresh && last == nil {
			req := ctrl.Refresh()
			last = &req
		}
	}

	if last != nil {
		ctrl.Do(r.Context(), *last)
	}
	state := ctrl.Snapshot()
	if invalid != nil {
		state.ErrorMessage = invalid.Error()
		return state, http.StatusBadRequest
	}
	return state, http.StatusOK
}

// requireSession returns the session of the request or redirects to the
// login page.
func (s *App) requireSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.lookup(r)
	if !ok {
		http.Redirect(w, r, loginRedirect(s.cfg.LoginURL, r), http.StatusSeeOther)
		return nil, false
	}
	return sess, true
}

// lockSession returns the session of the request with its mutex held, or
// redirects to the login page when there is none or it has just expired.
// The session cookie is renewed.
func (s *App) lockSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return nil, false
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		http.Redirect(w, r, loginRedirect(s.cfg.LoginURL, r), http.StatusSeeOther)
		return nil, false
	}
	setSessionCookie(w, sess.id, s.sessions.ttl)
	return sess, true
}

// LoginForm shows the login page.
func (s *App) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.lookup(r); ok {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, views.LoginPage("/login", safeNext(r.URL.Query().Get("next")), ""))
}

// Login checks the credentials and opens a session.
func (s *App) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, views.LoginPage("/login", "/", "Invalid form"))
		return
	}
	next := safeNext(r.PostForm.Get("next"))
	user, ok := s.cfg.FindUser(r.PostForm.Get("username"), r.PostForm.Get("password"))
	if !ok {
		s.log.Info("Login refused", slog.String("user", r.PostForm.Get("username")))
		s.render(w, r, http.StatusUnauthorized, views.LoginPage("/login", next, "Invalid credentials"))
		return
	}
	sess := s.sessions.create(user)
	s.log.Info("Login", slog.String("user", user.Name))
	setSessionCookie(w, sess.id, s.sessions.ttl)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout unmounts the listing of the session, which saves its preferences,
// and forgets the session.
func (s *App) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessions.lookup(r); ok {
		sess.mu.Lock()
		if err := sess.close(r.Context()); err != nil {
			s.log.Warn("Cannot unmount listing", slog.String("session", sess.id), slog.String("error", err.Error()))
		}
		sess.mu.Unlock()
		s.sessions.remove(sess.id)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, s.cfg.LoginURL, http.StatusSeeOther)
}

// Health reports the monitored components as JSON.
func (s *App) Health(w http.ResponseWriter, _ *http.Request) {
	report := s.health.Report()
	code := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.log.Error("Cannot encode health report", slog.String("error", err.Error()))
	}
}

func (s *App) render(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(r.Context(), w); err != nil {
		s.log.Error("Cannot render page", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}
}
