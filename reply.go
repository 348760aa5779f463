package oioproxy

import (
	"encoding/json"
	"errors"
	"net/http"
)

// WriteJSON writes the flat envelope for a successful reply: `status`
// and `message` sit at the same level as whatever fields payload
// marshals to, per spec §6 ("the envelope of every JSON response is
// `{"status": <int>, "message": <string>, ...payload}`" — e.g. E1's
// `{"status":200,"message":"OK","srv":[...]}`). payload may be nil (bare
// success), a struct (its exported fields are merged in), or anything
// else that marshals to a JSON object.
func WriteJSON(w http.ResponseWriter, payload any) {
	writeEnvelope(w, http.StatusOK, CodeOK, "OK", payload)
}

// WriteError writes the envelope for a failed operation. A transport or
// internal-class error still gets its own HTTP status (so a load
// balancer or client library can fail over); any application/business
// error from the oioproxy taxonomy is written as HTTP 200 with its real
// code in the envelope body, per spec §6's soft-error convention.
func WriteError(w http.ResponseWriter, err error) {
	var oe *Error
	if !errors.As(err, &oe) {
		writeEnvelope(w, http.StatusInternalServerError, CodeInternalError, err.Error(), nil)
		return
	}

	httpStatus := http.StatusOK
	switch {
	case oe.Transport():
		httpStatus = http.StatusBadGateway
	case oe.Code() == CodeBadRequest:
		httpStatus = http.StatusBadRequest
	case oe.Code() == CodeInternalError:
		httpStatus = http.StatusInternalServerError
	case oe.Code() == CodeNotImplemented:
		httpStatus = http.StatusNotImplemented
	}
	writeEnvelope(w, httpStatus, oe.Code(), oe.Error(), nil)
}

// writeEnvelope merges status/message with whatever object payload
// marshals to, and writes the result as a single flat JSON object. A
// nil payload (or one that doesn't marshal to a JSON object, e.g. a
// bare slice) is dropped silently; handlers that need to return a list
// wrap it in a named field first (spec §9: "express the reply as one
// flat JSON object, not a nested envelope").
func writeEnvelope(w http.ResponseWriter, httpStatus, code int, message string, payload any) {
	fields := map[string]json.RawMessage{}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil && len(raw) > 0 && raw[0] == '{' {
			if err := json.Unmarshal(raw, &fields); err != nil {
				Log.Error("failed to flatten reply payload", "error", err)
			}
		}
	}
	statusRaw, _ := json.Marshal(code)
	messageRaw, _ := json.Marshal(message)
	fields["status"] = statusRaw
	fields["message"] = messageRaw

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(fields); err != nil {
		Log.Error("failed to encode reply envelope", "error", err)
	}
}
