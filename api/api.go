// Package api serves a read-only view of the network configuration over
// HTTP, with live session updates on a websocket.
package api

import (
	"net"
	"net/http"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"
	"github.com/the-lightning-land/netconfig/connectivity"
	"github.com/the-lightning-land/netconfig/session"
)

// Access guards the API once a password has been set on the device.
type Access interface {
	Enabled() (bool, error)
	Check(password string) (bool, error)
}

// SessionState exposes the last update published by the session.
type SessionState interface {
	Last() *session.Update
}

type Config struct {
	Session     SessionState
	Reporter    connectivity.Reporter
	Broadcaster *Broadcaster
	Access      Access
	Logger      Logger
}

type Api struct {
	session     SessionState
	reporter    connectivity.Reporter
	broadcaster *Broadcaster
	access      Access
	router      *mux.Router
	log         Logger
}

func New(config *Config) *Api {
	api := &Api{
		session:     config.Session,
		reporter:    config.Reporter,
		broadcaster: config.Broadcaster,
		access:      config.Access,
		router:      mux.NewRouter(),
	}

	if config.Logger != nil {
		api.log = config.Logger
	} else {
		api.log = noopLogger{}
	}

	if api.broadcaster == nil {
		api.broadcaster = NewBroadcaster()
	}

	if api.access != nil {
		api.router.Use(api.requireAccess)
	}

	api.router.Handle("/api/v1/network", api.handleGetNetwork()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/network/events", api.handleGetNetworkEvents()).Methods(http.MethodGet)

	return api
}

// requireAccess asks for HTTP basic auth while a password is set. Any user
// name is accepted.
func (a *Api) requireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enabled, err := a.access.Enabled()
		if err != nil {
			a.log.Errorf("Could not load API password: %v", err)
			a.jsonError(w, "Could not check credentials", http.StatusInternalServerError)
			return
		}

		if !enabled {
			next.ServeHTTP(w, r)
			return
		}

		_, password, ok := r.BasicAuth()
		if ok {
			ok, err = a.access.Check(password)
			if err != nil {
				a.log.Errorf("Could not check API password: %v", err)
				a.jsonError(w, "Could not check credentials", http.StatusInternalServerError)
				return
			}
		}

		if !ok {
			a.log.Infof("Rejected unauthenticated request for %v", r.URL.Path)
			w.Header().Set("WWW-Authenticate", `Basic realm="netconfig"`)
			a.jsonError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *Api) Serve(l net.Listener) error {
	err := http.Serve(l, a.router)
	if err != nil {
		return errors.Errorf("unable to serve api: %v", err)
	}

	return nil
}
