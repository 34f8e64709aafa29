package verify

import (
	"context"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"authgate/internal/notify"
)

var landingPage = template.Must(template.New("landing").Parse(`<!doctype html>
<html>
<head><title>Email verification</title></head>
<body>
{{if .OK}}
<h1>Email verified</h1>
<p>{{.Message}}</p>
<p>Your account has been verified. You can now sign in from the client.</p>
{{else}}
<h1>Verification failed</h1>
<p>{{.Message}}</p>
<p>There was a problem verifying your email. The link may have expired.</p>
{{end}}
</body>
</html>
`))

// Listener serves the verification landing on a local address so the links
// the server emails can open against the running client.
type Listener struct {
	notifier notify.Notifier
	srv      *http.Server
}

func NewListener(addr string, notifier notify.Notifier) *Listener {
	l := &Listener{notifier: notifier}

	r := mux.NewRouter()
	r.HandleFunc("/verify-email", l.handleLanding).Methods("GET")

	l.srv = &http.Server{Addr: addr, Handler: r}
	return l
}

// Start serves until Shutdown. Run it on its own goroutine.
func (l *Listener) Start() error {
	err := l.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (l *Listener) Shutdown(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}

func (l *Listener) handleLanding(w http.ResponseWriter, r *http.Request) {
	landing, ok := ParseLanding(r.URL)
	if !ok {
		http.NotFound(w, r)
		return
	}

	// One-shot notification with the message text, matching the landing view.
	if landing.Outcome == Success {
		l.notifier.Success(landing.Message)
	} else {
		l.notifier.Error(landing.Message)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = landingPage.Execute(w, struct {
		OK      bool
		Message string
	}{landing.Outcome == Success, landing.Message})
}
