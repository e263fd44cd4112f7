package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/pprof"
	"net/netip"
	"runtime/debug"
	"strings"

	"github.com/yaotthaha/ipcheck/adapter"
	"github.com/yaotthaha/ipcheck/constant"
	"github.com/yaotthaha/ipcheck/gate"
	"github.com/yaotthaha/ipcheck/log"
	"github.com/yaotthaha/ipcheck/option"

	"github.com/fatih/color"
	"github.com/go-chi/chi"
	"github.com/go-faster/jx"
)

type APIServer struct {
	ctx        context.Context
	core       adapter.Core
	fatalClose func(error)
	logger     log.ContextLogger
	debug      bool
	secret     string
	listen     netip.AddrPort
	chiMux     *chi.Mux
	httpServer *http.Server
}

func NewAPIServer(ctx context.Context, core adapter.Core, logger log.Logger, options option.APIOptions) (*APIServer, error) {
	tagLogger := log.NewTagLogger(logger, "api server")
	if clogger, isSetColorLogger := tagLogger.(log.SetColorLogger); isSetColorLogger {
		clogger.SetColor(color.FgYellow)
	}
	a := &APIServer{
		ctx:    ctx,
		core:   core,
		logger: log.NewContextLogger(tagLogger),
	}
	if options.Listen == "" {
		return a, nil
	}
	listenAddr, err := netip.ParseAddrPort(options.Listen)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address: %s", err)
	}
	a.listen = listenAddr
	a.secret = options.Secret
	a.debug = options.Debug
	a.chiMux = chi.NewMux()
	a.chiMux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	a.chiMux.Route("/", func(r chi.Router) {
		if a.secret != "" {
			r.Use(a.auth)
		}
		r.Use(a.contextTag)
		if a.debug {
			initGoDebugHTTPHandler(r)
		}
		r.Post("/load", a.load)
		r.Post("/clear", a.clear)
		r.Post("/reload", a.reload)
		r.Get("/contains/{ip}", a.contains)
		r.Get("/ranges", a.ranges)
		r.Get("/stats", a.stats)
		r.Get("/health", a.health)
	})
	a.httpServer = &http.Server{
		Addr:    listenAddr.String(),
		Handler: a.chiMux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	return a, nil
}

func (a *APIServer) WithFatalCloser(f func(error)) {
	a.fatalClose = f
}

func (a *APIServer) Start() error {
	if a.httpServer != nil {
		go func() {
			err := a.httpServer.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				if a.fatalClose != nil {
					a.fatalClose(fmt.Errorf("failed to start API server: %s", err))
				}
				a.logger.Error(fmt.Sprintf("failed to start API server: %s", err))
			}
		}()
		a.logger.Info(fmt.Sprintf("API server started at %s", a.httpServer.Addr))
	}
	return nil
}

func (a *APIServer) Close() error {
	if a.httpServer != nil {
		err := a.httpServer.Close()
		if err != nil {
			return err
		}
		a.logger.Info("api server close")
	}
	return nil
}

func (a *APIServer) auth(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		bearer, token, ok := strings.Cut(authHeader, " ")
		if !ok || bearer != "Bearer" || subtle.ConstantTimeCompare([]byte(token), []byte(a.secret)) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func (a *APIServer) contextTag(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := log.AddContextTag(r.Context())
		a.logger.DebugContext(ctx, fmt.Sprintf("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr))
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

func (a *APIServer) load(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, constant.MaxLoadBodyBytes+1))
	if err != nil {
		a.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if len(body) > constant.MaxLoadBodyBytes {
		a.writeError(w, r, http.StatusRequestEntityTooLarge, fmt.Errorf("body exceeds %d bytes", constant.MaxLoadBodyBytes))
		return
	}
	n, err := a.core.Load(r.Context(), string(body))
	if err != nil {
		a.writeError(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.FieldStart("ranges")
		e.Int(n)
	})
}

func (a *APIServer) clear(w http.ResponseWriter, r *http.Request) {
	a.core.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *APIServer) reload(w http.ResponseWriter, r *http.Request) {
	n, err := a.core.Reload(r.Context(), "api")
	if err != nil {
		a.writeError(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.FieldStart("ranges")
		e.Int(n)
	})
}

func (a *APIServer) contains(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")
	found, err := a.core.Contains(r.Context(), ip)
	if err != nil {
		a.writeError(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.FieldStart("ip")
		e.Str(ip)
		e.FieldStart("contains")
		e.Bool(found)
	})
}

func (a *APIServer) ranges(w http.ResponseWriter, r *http.Request) {
	ranges, err := a.core.Ranges()
	if err != nil {
		a.writeError(w, r, statusOf(err), err)
		return
	}
	var builder strings.Builder
	for _, rg := range ranges {
		for _, prefix := range rg.Prefixes() {
			builder.WriteString(prefix.String())
			builder.WriteByte('\n')
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, builder.String())
}

func (a *APIServer) stats(w http.ResponseWriter, r *http.Request) {
	ranges, err := a.core.Ranges()
	if err != nil {
		a.writeError(w, r, statusOf(err), err)
		return
	}
	var prefixes int
	for _, rg := range ranges {
		prefixes += len(rg.Prefixes())
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.FieldStart("ranges")
		e.Int(len(ranges))
		e.FieldStart("prefixes")
		e.Int(prefixes)
	})
}

// health reports 204 while the range set is open and 503 after teardown.
func (a *APIServer) health(w http.ResponseWriter, r *http.Request) {
	if !a.core.Available() {
		a.writeError(w, r, http.StatusServiceUnavailable, gate.ErrUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, gate.ErrMalformedAddress), errors.Is(err, gate.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, gate.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *APIServer) writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	if code >= http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), fmt.Sprintf("%s %s fail: %s", r.Method, r.URL.Path, err))
	} else {
		a.logger.DebugContext(r.Context(), fmt.Sprintf("%s %s fail: %s", r.Method, r.URL.Path, err))
	}
	writeJSON(w, code, func(e *jx.Encoder) {
		e.FieldStart("error")
		e.Str(err.Error())
	})
}

func writeJSON(w http.ResponseWriter, code int, fields func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	fields(e)
	e.ObjEnd()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}

func initGoDebugHTTPHandler(r chi.Router) {
	r.Route("/debug", func(r chi.Router) {
		r.Get("/gc", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
			go debug.FreeOSMemory()
		})
		r.HandleFunc("/pprof", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/debug/pprof/", http.StatusMovedPermanently)
		})
		r.HandleFunc("/pprof/*", pprof.Index)
		r.HandleFunc("/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/pprof/profile", pprof.Profile)
		r.HandleFunc("/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/pprof/trace", pprof.Trace)
	})
}
