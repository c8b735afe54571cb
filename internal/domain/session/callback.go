package session

import "net/url"

// Callback is the parameter set an identity provider may deliver to the
// staff entry route. Providers redirect with parameters in either the query
// string or the fragment, so both are consulted.
type Callback struct {
	Code             string
	State            string
	ErrorCode        string
	ErrorDescription string
	RequestID        string
}

// ParseCallback extracts callback parameters from u, preferring the query
// string and falling back to the fragment for each parameter individually.
func ParseCallback(u *url.URL) Callback {
	query := u.Query()
	fragment, _ := url.ParseQuery(u.Fragment)

	get := func(key string) string {
		if v := query.Get(key); v != "" {
			return v
		}
		return fragment.Get(key)
	}

	requestID := get("client-request-id")
	if requestID == "" {
		requestID = get("client_request_id")
	}

	return Callback{
		Code:             get("code"),
		State:            get("state"),
		ErrorCode:        get("error"),
		ErrorDescription: get("error_description"),
		RequestID:        requestID,
	}
}

// HasCodePayload reports whether the callback carries a usable
// authorization-code pair.
func (c Callback) HasCodePayload() bool { return c.Code != "" && c.State != "" }

// ProviderError returns the provider failure carried by this callback, or
// nil when the callback does not represent a failure. A request ID alone is
// only an error when no valid code payload accompanies it.
func (c Callback) ProviderError() *ProviderError {
	if c.ErrorCode == "" && c.ErrorDescription == "" && (c.RequestID == "" || c.HasCodePayload()) {
		return nil
	}
	return &ProviderError{
		Code:        c.ErrorCode,
		Description: c.ErrorDescription,
		RequestID:   c.RequestID,
	}
}
