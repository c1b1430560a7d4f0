package utils

import (
	"encoding/json"
	"net/http"
)

// JSONResponse writes data as the JSON body of a response with the given status
func JSONResponse(w http.ResponseWriter, code int, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err = w.Write(body)
	return err
}
