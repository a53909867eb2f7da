package bridge

import (
	"net/http"

	"github.com/WhileEndless/go-httpmessage/pkg/logging"
	"github.com/WhileEndless/go-httpmessage/pkg/middleware"
)

// Handler serves h through net/http. A request that cannot be converted is
// answered with 400 and a handler error with 500; both are logged.
func Handler(h middleware.Handler, log logging.Logger) http.Handler {
	if log == nil {
		log = logging.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := ToServerRequest(r)
		if err != nil {
			log.Log(logging.Warning, "rejected request: "+err.Error(), map[string]any{
				"method": r.Method,
				"uri":    r.RequestURI,
			})
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		resp, err := h.Handle(req)
		if err != nil {
			log.Log(logging.Error, "handler failed: "+err.Error(), map[string]any{
				"method": r.Method,
				"uri":    r.RequestURI,
			})
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err := WriteResponse(w, resp); err != nil {
			log.Log(logging.Warning, "failed to write response: "+err.Error(), nil)
		}
	})
}
