package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kiranshivaraju/compass/internal/api/response"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst. On failure it writes a 400 and
// returns false. An empty body decodes to the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, "Request body too large")
			return false
		}
		response.BadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}
