package repository

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/noah-isme/vaxdrive-console/pkg/directory"
)

// DirectoryClient is the transport the directory-backed repositories share.
type DirectoryClient interface {
	Do(ctx context.Context, req directory.Request, out interface{}) error
	Upload(ctx context.Context, req directory.Request, field, filename string, content io.Reader, out interface{}) error
}

// resource is the common shape of a directory-backed repository.
type resource struct {
	client DirectoryClient
}

func (r resource) get(ctx context.Context, token, path, endpoint string, query url.Values, out interface{}) error {
	return r.client.Do(ctx, directory.Request{Method: http.MethodGet, Path: path, Endpoint: endpoint, Token: token, Query: query}, out)
}

func (r resource) send(ctx context.Context, method, token, path, endpoint string, body, out interface{}) error {
	return r.client.Do(ctx, directory.Request{Method: method, Path: path, Endpoint: endpoint, Token: token, Body: body}, out)
}

func itemPath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}
