// ABOUTME: Loopback callback listener replacing the original popup window.
// ABOUTME: Initiate blocks until the provider redirects back or ctx cancels.
package social

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// OpenURL is invoked with the authorize URL so the caller can launch a
// browser. The default just prints it.
var OpenURL = func(u string) error {
	fmt.Println("Open this URL to authorize:")
	fmt.Println("  " + u)
	return nil
}

// Initiate runs an interactive authorization flow: it binds a loopback
// listener matching cfg.RedirectURL, hands the authorize URL to OpenURL, and
// blocks until the provider redirects back with a code. Returns the stored
// connection on success, ErrCancelled if ctx ends first.
func (s *Service) Initiate(ctx context.Context, platform Platform) (Connection, error) {
	if err := s.checkConfigured(platform); err != nil {
		return Connection{}, err
	}

	authURL, _, err := s.AuthURL(platform)
	if err != nil {
		return Connection{}, err
	}

	redirect, err := parseLoopback(s.cfg.RedirectURL)
	if err != nil {
		return Connection{}, err
	}
	ln, err := net.Listen("tcp", redirect.host)
	if err != nil {
		return Connection{}, fmt.Errorf("bind callback listener: %w", err)
	}

	type result struct {
		conn Connection
		err  error
	}
	done := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errMsg := q.Get("error"); errMsg != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			done <- result{err: fmt.Errorf("%w: %s", ErrCancelled, errMsg)}
			return
		}
		conn, err := s.HandleCallback(r.Context(), q.Get("code"), q.Get("state"), platform)
		if err != nil {
			http.Error(w, "authorization failed", http.StatusBadRequest)
			done <- result{err: err}
			return
		}
		fmt.Fprintln(w, "Connected. You can close this window.")
		done <- result{conn: conn}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- result{err: err}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := OpenURL(authURL); err != nil {
		return Connection{}, err
	}

	select {
	case <-ctx.Done():
		return Connection{}, ErrCancelled
	case res := <-done:
		return res.conn, res.err
	}
}

type loopbackAddr struct {
	host string // host:port to bind
	path string // callback path
}

func parseLoopback(redirectURL string) (loopbackAddr, error) {
	if redirectURL == "" {
		return loopbackAddr{}, errors.New("redirect URL required for interactive flow")
	}
	u, err := url.Parse(redirectURL)
	if err != nil {
		return loopbackAddr{}, fmt.Errorf("parse redirect URL: %w", err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return loopbackAddr{host: u.Host, path: path}, nil
}
