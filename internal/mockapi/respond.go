package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"savora/pkg/apierrors"
)

func writeJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code.
	_ = json.NewEncoder(w).Encode(response)
}

// writeError encodes the backend failure contract: a status code and a
// {"message": ...} body.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *apierrors.Error
	if errors.As(err, &apiErr) {
		writeJSON(w, apierrors.ToHTTPStatus(apiErr.Code), map[string]string{
			"message": apiErr.Error(),
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"message": "internal error",
	})
}

func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return apierrors.New(apierrors.CodeBadRequest, "malformed request body")
	}
	return nil
}
