package middleware

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

// DeviceInfo summarizes the visitor's user agent for audit events.
type DeviceInfo struct {
	Browser string
	OS      string
	Mobile  bool
}

type contextKeyDevice struct{}

// GetDevice retrieves the parsed device info, or a zero value outside the
// Device middleware.
func GetDevice(ctx context.Context) DeviceInfo {
	v, _ := ctx.Value(contextKeyDevice{}).(DeviceInfo)
	return v
}

// Device parses the User-Agent header once per request so audit events can
// record what kind of client drove the wizard.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.UserAgent())
		name, version := ua.Browser()
		info := DeviceInfo{
			Browser: name + " " + version,
			OS:      ua.OS(),
			Mobile:  ua.Mobile(),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyDevice{}, info)))
	})
}
