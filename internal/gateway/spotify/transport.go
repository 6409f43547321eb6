package spotify

import (
	"net/http"
)

// tokenTransport добавляет токен к каждому запросу и один раз повторяет запрос
// с новым токеном, если Spotify ответил 401
type tokenTransport struct {
	base   http.RoundTripper
	tokens TokenProvider
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.Token(req.Context())
	if err != nil {
		return nil, err
	}

	resp, err := t.send(req, token)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	fresh, refreshErr := t.tokens.Refresh(req.Context(), token)
	if refreshErr != nil || fresh == token {
		return resp, nil
	}
	_ = resp.Body.Close()
	return t.send(req, fresh)
}

func (t *tokenTransport) send(req *http.Request, token string) (*http.Response, error) {
	// RoundTrip не должен менять исходный запрос
	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	r.Header.Set("Authorization", "Bearer "+token)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
