// Package gzippedhttp accepts gzip compressed request bodies. Response
// compression is left to the router's Compress middleware.
package gzippedhttp

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/patric-chuzhbe/bookbuddy/internal/httpresponse"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

var readerPool sync.Pool

// body replaces a request body with its decompressed stream.
type body struct {
	raw io.ReadCloser
	zr  *gzip.Reader
}

func newBody(raw io.ReadCloser) (*body, error) {
	zr, _ := readerPool.Get().(*gzip.Reader)
	var err error
	if zr == nil {
		zr, err = gzip.NewReader(raw)
	} else {
		err = zr.Reset(raw)
	}
	if err != nil {
		return nil, err
	}

	return &body{raw: raw, zr: zr}, nil
}

func (b *body) Read(p []byte) (int, error) {
	return b.zr.Read(p)
}

func (b *body) Close() error {
	if b.zr == nil {
		return nil
	}
	zrErr := b.zr.Close()
	readerPool.Put(b.zr)
	b.zr = nil

	if err := b.raw.Close(); err != nil {
		return err
	}
	return zrErr
}

func isGzipped(request *http.Request) bool {
	for _, encoding := range strings.Split(request.Header.Get("Content-Encoding"), ",") {
		if strings.EqualFold(strings.TrimSpace(encoding), "gzip") {
			return true
		}
	}
	return false
}

// UngzipRequest transparently decompresses bodies sent with
// Content-Encoding: gzip. A body that is not valid gzip yields 400.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if !isGzipped(request) {
			h.ServeHTTP(response, request)
			return
		}

		decompressed, err := newBody(request.Body)
		if err != nil {
			httpresponse.Error(response, fmt.Errorf("%w: malformed gzip body: %v", models.ErrBadInput, err))
			return
		}
		defer decompressed.Close()

		request.Body = decompressed
		request.Header.Del("Content-Encoding")
		request.ContentLength = -1

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
