package server

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Jatinnn-r/Video-Streaming-Platform/server/auth"
	"github.com/cyclopcam/staticfiles"
	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
	"os"
)

//go:embed www
var staticWWW embed.FS

type authenticatedHandler func(w http.ResponseWriter, r *http.Request, params httprouter.Params, cred *auth.Credentials)

func (s *Server) setupHttpRoutes() error {
	router := httprouter.New()

	// protected creates an HTTP handler that is accessible only with authentication
	protected := func(method, route string, handle authenticatedHandler) {
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			cred := s.auth.AuthenticateRequest(w, r)
			if cred == nil {
				return
			}
			handle(w, r, params, cred)
		})
	}

	// unprotected creates an HTTP handler that is accessible without authentication
	unprotected := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handle)
	}

	// ratelimited creates an unprotected handler with a per-IP rate limit.
	// Each endpoint gets its own limiter, so we don't need per-endpoint keying.
	ratelimited := func(method, route string, handle httprouter.Handle, requestLimit int, windowLength time.Duration) {
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	// ratelimitedProtected is ratelimited + authentication, for endpoints that
	// are both expensive and authenticated (upload).
	ratelimitedProtected := func(method, route string, handle authenticatedHandler, requestLimit int, windowLength time.Duration) {
		ratelimited(method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			cred := s.auth.AuthenticateRequest(w, r)
			if cred == nil {
				return
			}
			handle(w, r, params, cred)
		}, requestLimit, windowLength)
	}

	unprotected("GET", "/api/ping", s.httpPing)

	ratelimited("POST", "/api/auth/register", s.httpAuthRegister, 5, time.Minute)
	ratelimited("POST", "/api/auth/login", s.httpAuthLogin, 10, time.Minute)
	protected("POST", "/api/auth/logout", s.httpAuthLogout)
	protected("GET", "/api/auth/check", s.httpAuthCheck)

	ratelimitedProtected("POST", "/api/videos/upload", s.video.HttpUploadVideo, 10, time.Minute)
	unprotected("GET", "/api/videos/list", s.video.HttpListVideos)
	unprotected("GET", "/api/video/:id", s.video.HttpGetVideo)
	unprotected("GET", "/api/videos/stream/:ref", s.video.HttpStreamVideo)
	unprotected("GET", "/api/events", s.httpEvents)

	isImmutable := true
	var fsys fs.FS
	fsysRoot := "www"
	fsys = staticWWW
	if s.HotReloadWWW {
		relRoot := "server/www"
		absRoot, err := filepath.Abs(relRoot)
		if err != nil {
			s.Log.Errorf("Failed to resolve static file directory %v: %v", relRoot, err)
			return errors.New("Failed to resolve static file directory for hot reload")
		}
		s.Log.Infof("Serving static files from %v, with hot reload", absRoot)
		fsys = os.DirFS(absRoot)
		fsysRoot = ""
		isImmutable = false
	}

	static, err := staticfiles.NewCachedStaticFileServer(fsys, fsysRoot, []string{"/api/"}, s.Log, isImmutable, nil)
	if err != nil {
		s.Log.Warnf("Error in static files: %v", err)
	}
	router.NotFound = static

	s.httpRouter = router
	return nil
}
