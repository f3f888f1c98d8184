package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/arthur-debert/objstore/pkg/errors"
)

// Remote talks to a store served over HTTP:
//
//	GET    <base>/<name>  blob bytes, 404 when missing
//	HEAD   <base>/<name>  200 or 404
//	PUT    <base>/<name>  store the request body
//	DELETE <base>/<name>  remove one blob
//	DELETE <base>/        remove every blob
type Remote struct {
	base   string
	client *http.Client
}

// NewRemote returns a backend for the store at baseURL. A nil client uses
// http.DefaultClient.
func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{base: strings.TrimSuffix(baseURL, "/"), client: client}
}

// URL returns the base URL of the store.
func (r *Remote) URL() string { return r.base }

func (r *Remote) blobURL(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return r.base + "/" + strings.Join(segments, "/"), nil
}

func (r *Remote) do(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	return r.client.Do(req)
}

func statusError(resp *http.Response, op, name string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return errors.Newf(errors.ErrBackendFailure, "%s %s: %s", op, name, strings.TrimSpace(fmt.Sprintf("%s %s", resp.Status, msg))).
		WithDetail("status", resp.StatusCode)
}

func (r *Remote) Persist(ctx context.Context, name string, data []byte) error {
	target, err := r.blobURL(name)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	resp, err := r.do(ctx, http.MethodPut, target, data)
	if err != nil {
		return failure(err, "put", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError(resp, "put", name)
	}
	return nil
}

func (r *Remote) Retrieve(ctx context.Context, name string) ([]byte, error) {
	target, err := r.blobURL(name)
	if err != nil {
		return nil, err
	}
	resp, err := r.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, failure(err, "get", name)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFound(name)
	case resp.StatusCode/100 != 2:
		return nil, statusError(resp, "get", name)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure(err, "read body of", name)
	}
	return data, nil
}

func (r *Remote) Exists(ctx context.Context, name string) (bool, error) {
	target, err := r.blobURL(name)
	if err != nil {
		return false, err
	}
	resp, err := r.do(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false, failure(err, "head", name)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode/100 != 2:
		return false, statusError(resp, "head", name)
	}
	return true, nil
}

func (r *Remote) Remove(ctx context.Context, name string) error {
	target, err := r.blobURL(name)
	if err != nil {
		return err
	}
	return r.delete(ctx, target, name)
}

func (r *Remote) Clear(ctx context.Context) error {
	return r.delete(ctx, r.base+"/", r.base)
}

func (r *Remote) delete(ctx context.Context, target, name string) error {
	resp, err := r.do(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return failure(err, "delete", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode/100 == 2 {
		return nil
	}
	return statusError(resp, "delete", name)
}

// Close drops idle connections of the client.
func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

var _ Backend = (*Remote)(nil)
