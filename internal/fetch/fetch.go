// Package fetch retrieves source files from local disk, HTTP and FTP
// locations behind one Opener interface, so the source loader does not care
// where a delimited file lives.
package fetch

import (
	"context"
	"io"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
)

// Opener resolves a location to a readable stream.
type Opener interface {
	// Open returns the contents at location. The caller closes the reader.
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// opener dispatches on the location scheme.
type opener struct {
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// NewOpener builds the default Opener: local paths, http(s):// via the HTTP
// fetcher, ftp:// via the FTP fetcher.
func NewOpener(httpOpts HTTPOptions, ftpOpts FTPOptions) Opener {
	return &opener{
		http: NewHTTPFetcher(httpOpts),
		ftp:  NewFTPFetcher(ftpOpts),
	}
}

func (o *opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	u, err := url.Parse(location)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return o.http.Download(ctx, location)
		case "ftp":
			return o.ftp.Download(ctx, location)
		}
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: open %s", location)
	}
	return f, nil
}
