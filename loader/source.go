package loader

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	lvutils "github.com/treescape/lidarview/utils"
)

// A Source hands out raw LAS bytes for a cloud id. Open returns the stream,
// the total size in bytes when the source knows it, and a negative size when
// it does not. The returned reader is owned by the caller.
type Source interface {
	Open(ctx context.Context, id string) (io.ReadCloser, int64, error)
}

// FileSource serves clouds from a directory tree. The id is a path relative
// to Root; paths that escape the root are rejected.
type FileSource struct {
	Root string
}

// Open opens the file for the given id and reports its size.
func (s FileSource) Open(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	path, err := lvutils.SafeJoinDir(s.Root, id)
	if err != nil {
		return nil, 0, err
	}
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		utils.UncheckedError(f.Close())
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// HTTPSource fetches clouds over HTTP. The id is joined onto BaseURL as a
// path segment.
type HTTPSource struct {
	BaseURL string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Open issues a GET for the cloud and returns the body. The size comes from
// the Content-Length header and is negative when the server does not send
// one.
func (s HTTPSource) Open(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	u, err := url.JoinPath(s.BaseURL, id)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	//nolint:bodyclose /// closed in UncheckedError or by the caller
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		utils.UncheckedError(resp.Body.Close())
		return nil, 0, errors.Errorf("invalid status code %d", resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}
