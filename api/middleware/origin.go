package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/dukahub/duka-backend/pkg/logger"
)

// CallbackOrigin drops webhook deliveries from outside the provider's
// published address ranges. Rejected deliveries are still answered with the
// provider's benign acknowledgement so a spoofing sender learns nothing and
// the provider never retry-storms; only the log records the rejection. An
// empty prefix list disables the check, which is how the sandbox environment
// runs.
func CallbackOrigin(prefixes []netip.Prefix, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(prefixes) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			addr, ok := clientAddr(r)
			if ok {
				for _, prefix := range prefixes {
					if prefix.Contains(addr) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			if logg != nil {
				ctx := r.Context()
				if ok {
					ctx = logg.WithField(ctx, "remote_addr", addr.String())
				}
				logg.Warn(ctx, "callback.origin_rejected")
			}
			writeOriginAck(w)
		})
	}
}

func writeOriginAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ResultCode":0,"ResultDesc":"Accepted"}` + "\n"))
}

// clientAddr resolves the originating address, preferring the first
// X-Forwarded-For hop set by the load balancer.
func clientAddr(r *http.Request) (netip.Addr, bool) {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
		if addr, err := netip.ParseAddr(first); err == nil {
			return addr.Unmap(), true
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
