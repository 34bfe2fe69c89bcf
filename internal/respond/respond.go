// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package respond is the response serializer: it projects a success value or a
typed error into the uniform API envelope and renders it on the transport
response.

Architecture:

  - Envelope: every response is either {data: ...} or {error: ...}, never both.
  - Projection: values are reduced to the requested field subset (see
    [Project]) before rendering.
  - Formats: JSON (pretty-printed, default) and XML, chosen by the trailing
    path format discriminator (e.g. /v1/actors.xml).

The serializer writes the response exactly once; callers wanting the
at-most-once guarantee across concurrent finalization attempts wrap the
[http.ResponseWriter] beforehand (see the rest package).
*/
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/restkit/internal/platform/apperr"
	"github.com/taibuivan/restkit/internal/platform/ctxutil"
	"github.com/taibuivan/restkit/pkg/fieldmask"
	"github.com/taibuivan/restkit/pkg/query"
)

// Formats supported by the serializer. Anything else falls back to JSON.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
)

// SuccessEnvelope is the envelope for successful responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the envelope for failed responses.
type ErrorEnvelope struct {
	Error *apperr.AppError `json:"error"`
}

// Render serializes a value or an error into the response envelope.
//
// The output format is chosen from the "format" path parameter, the
// projection from the "fields" query parameter. A value implementing error
// that is not an [*apperr.AppError] is coerced to Internal and its cause
// logged server-side; the client never sees internal detail.
func Render(writer http.ResponseWriter, request *http.Request, value any) {
	if err, ok := value.(error); ok {
		RenderError(writer, request, err)
		return
	}

	mask := RequestMask(request)
	write(writer, request, http.StatusOK, SuccessEnvelope{Data: Project(value, mask)})
}

// RenderError serializes a typed error with its HTTP status. Non-typed
// errors are wrapped as Internal and logged, never silently dropped.
func RenderError(writer http.ResponseWriter, request *http.Request, err error) {
	appError := apperr.As(err)
	if appError == nil {
		ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
			"unhandled_error_coerced", "error", err.Error())
		appError = apperr.Internal("", 0, err)
	}
	write(writer, request, appError.HTTPStatus, ErrorEnvelope{Error: appError})
}

// RequestMask parses the "fields" query parameter into a projection mask.
// Duplicate or malformed entries are ignored here; strict validation against
// a model's attribute set is the filter compiler's responsibility.
func RequestMask(request *http.Request) fieldmask.Mask {
	fields := query.StringSlice(request.URL.Query().Get("fields"))
	if len(fields) == 0 {
		return nil
	}
	mask := fieldmask.New()
	for _, field := range fields {
		mask.Add(field)
	}
	return mask
}

// Format resolves the wire format from the trailing path discriminator.
func Format(request *http.Request) string {
	if chi.URLParam(request, "format") == FormatXML {
		return FormatXML
	}
	return FormatJSON
}

func write(writer http.ResponseWriter, request *http.Request, status int, envelope any) {
	switch Format(request) {
	case FormatXML:
		writer.Header().Set("Content-Type", "application/xml; charset=utf-8")
		writer.WriteHeader(status)
		_, _ = writer.Write([]byte(MarshalXML(envelope)))
	default:
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(status)
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(envelope)
	}
}
