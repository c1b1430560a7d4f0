package server

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/webhookx-io/intercom/envelope"
	"github.com/webhookx-io/intercom/model"
)

// panicRecovery replies with a relay failure when a handler panics
func (s *Server) panicRecovery(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if e := recover(); e != nil {
				if e == http.ErrAbortHandler {
					panic(e)
				}
				var err error
				switch v := e.(type) {
				case error:
					err = v
				default:
					err = errors.New(fmt.Sprint(e))
				}

				buf := make([]byte, 2048)
				n := runtime.Stack(buf, false)
				buf = buf[:n]
				s.log.Errorf("panic recovered: %v\n %s", err, buf)

				res := &model.Response{Failure: model.NewFailure(model.FailureRelay, "panic: %v", err)}
				metadata, body, err := envelope.EncodeResponse(res)
				if err != nil {
					w.WriteHeader(500)
					return
				}
				_ = (&responseEmitter{w: w}).Emit(metadata, body)
			}
		}()

		h.ServeHTTP(w, r)
	})
}
