package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

type requestOption func(*http.Request)

func withBearerToken(token string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func sendRequest[TReq any, TResp any](
	c *http.Client,
	url string,
	method string,
	req TReq,
	opts ...requestOption,
) (TResp, *http.Response, error) {
	var resp TResp

	payload, err := json.Marshal(req)
	if err != nil {
		return resp, nil, err
	}

	httpReq, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return resp, nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(httpReq)
	}

	httpResp, err := c.Do(httpReq)
	if err != nil {
		return resp, nil, err
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	responsePayload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return resp, httpResp, err
	}

	if len(responsePayload) > 0 {
		if err := json.Unmarshal(responsePayload, &resp); err != nil {
			return resp, httpResp, err
		}
	}

	return resp, httpResp, nil
}
