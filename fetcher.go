package stache

import (
	"context"
	"crypto/tls"
	"fmt"
	"io/ioutil"
	"net/http"
	"unicode/utf8"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	rootcerts "github.com/hashicorp/go-rootcerts"
)

// Fetcher retrieves the raw body of a remote reference.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Response is the raw result of a remote fetch. The body is not parsed.
type Response struct {
	Body        string
	ContentType string
}

// HTTPFetcher fetches references over HTTP(S) with a GET request.
type HTTPFetcher struct {
	client *http.Client
}

// check for interface compliance
var _ Fetcher = (*HTTPFetcher)(nil)

// FetcherInput is used as input to NewHTTPFetcher.
type FetcherInput struct {
	// Transport/TLS
	SSLCert    string
	SSLKey     string
	SSLCACert  string
	SSLCAPath  string
	ServerName string
	Insecure   bool

	// optional, principally for testing
	HttpClient *http.Client
}

// NewHTTPFetcher creates a fetcher from the given input.
func NewHTTPFetcher(i FetcherInput) (*HTTPFetcher, error) {
	client, err := httpClient(i)
	if err != nil {
		return nil, err
	}
	return &HTTPFetcher{client: client}, nil
}

// Fetch performs the GET request. Transport failures, non-200 statuses and
// empty or non-text bodies all fail with ErrTransport annotated with url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(ErrTransport, url, "%w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newError(ErrTransport, url, "%w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(ErrTransport, url, "%w", &downloadError{
			msg: fmt.Sprintf("got status %d downloading", resp.StatusCode),
		})
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrTransport, url, "%w", err)
	}
	switch {
	case len(body) == 0:
		return nil, newError(ErrTransport, url, "%w",
			&downloadError{msg: "got empty body while downloading"})
	case !utf8.Valid(body):
		return nil, newError(ErrTransport, url, "%w",
			&downloadError{msg: "got non-text body while downloading"})
	}

	return &Response{
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Stop closes idle connections held by the client.
func (f *HTTPFetcher) Stop() {
	f.client.CloseIdleConnections()
}

// httpClient returns the http.Client to use with the fetcher.
// Returns the test one if given, otherwise creates one with a pooled transport.
func httpClient(i FetcherInput) (*http.Client, error) {
	if i.HttpClient != nil {
		return i.HttpClient, nil
	}
	transport, err := newTransport(i)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: transport}, nil
}

func newTransport(i FetcherInput) (*http.Transport, error) {
	transport := cleanhttp.DefaultPooledTransport()

	if !i.tlsConfigured() {
		return transport, nil
	}

	var tlsConfig tls.Config

	// Custom certificate or certificate and key
	if i.SSLCert != "" {
		key := i.SSLKey
		if key == "" {
			key = i.SSLCert
		}
		cert, err := tls.LoadX509KeyPair(i.SSLCert, key)
		if err != nil {
			return nil, fmt.Errorf("fetcher: ssl: %s", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	// Custom CA certificate
	if i.SSLCACert != "" || i.SSLCAPath != "" {
		rootConfig := &rootcerts.Config{
			CAFile: i.SSLCACert,
			CAPath: i.SSLCAPath,
		}
		if err := rootcerts.ConfigureTLS(&tlsConfig, rootConfig); err != nil {
			return nil, fmt.Errorf("fetcher: configuring TLS failed: %s", err)
		}
	}

	if i.ServerName != "" {
		tlsConfig.ServerName = i.ServerName
	}
	tlsConfig.InsecureSkipVerify = i.Insecure

	transport.TLSClientConfig = &tlsConfig
	return transport, nil
}

func (i FetcherInput) tlsConfigured() bool {
	return i.SSLCert != "" || i.SSLCACert != "" || i.SSLCAPath != "" ||
		i.ServerName != "" || i.Insecure
}
