package api

// Response is the envelope every HTTP handler returns. Message and Error
// are always present; the optional fields use omitempty, so they are left
// out of the JSON when unset or holding their zero value.
type Response struct {
	Message   string `json:"message"`
	Error     bool   `json:"error"`
	Object    any    `json:"object,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Response  any    `json:"response,omitempty"`
}

// ResponseOption customizes a generated Response, letting callers omit
// fields they didn't set rather than forcing zero values through.
type ResponseOption func(*Response)

func WithObject(object any) ResponseOption {
	return func(r *Response) { r.Object = object }
}

func WithTimestamp(ts int64) ResponseOption {
	return func(r *Response) { r.Timestamp = ts }
}

func WithResponse(response any) ResponseOption {
	return func(r *Response) { r.Response = response }
}

// genResponse builds a Response from a message, error flag, and any
// optional fields.
func genResponse(message string, isError bool, opts ...ResponseOption) Response {
	r := Response{Message: message, Error: isError}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}
