package pcgweb

import (
	"bufio"
	"errors"
	"log"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
)

// statusWriter records the response status and size for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.status == 0 {
		sw.status = code
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.size += n
	return n, err
}

// Hijack lets websocket upgrades pass through the logger.
func (sw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if sw.status == 0 {
		sw.status = http.StatusSwitchingProtocols
	}
	return hj.Hijack()
}

func (sw *statusWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }

// logRequests logs one line per request in the form
//
//	GET /api/scene 200 1.234 ms - 5120
func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		elapsed := float64(time.Since(start).Microseconds()) / 1000
		logger.Printf("%s %s %d %.3f ms - %d", r.Method, r.URL.RequestURI(), sw.status, elapsed, sw.size)
	})
}

const methodOverrideHeader = "X-HTTP-Method-Override"

// overrideMethod lets POST requests act as PUT, PATCH or DELETE by setting the
// X-HTTP-Method-Override header or a _method form field, for clients such as
// HTML forms that can only send GET and POST.
func overrideMethod(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.Header.Get(methodOverrideHeader)
			if method == "" && isForm(r) {
				method = r.PostFormValue("_method")
			}
			method = strings.ToUpper(method)
			switch method {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isForm(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "application/x-www-form-urlencoded"
}
