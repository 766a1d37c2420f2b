package health

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

const defaultProbeTimeout = 5 * time.Second

type Prober interface {
	// Probe makes one HEAD request to target. Transport failures are
	// reported in ProbeResult.Err; only an unusable target is returned as
	// error.
	Probe(ctx context.Context, target string, ignoreTLS bool) (ProbeResult, error)
}

type ProbeResult struct {
	StatusCode int
	Err        error
	DNSFailed  bool
	Refused    bool
	Duration   time.Duration
	Timestamp  time.Time
}

// Reachable reports whether the target answered. Any status below 500 means
// the server is there even if it does not like HEAD.
func (r ProbeResult) Reachable() bool {
	return r.Err == nil && r.StatusCode > 0 && r.StatusCode < http.StatusInternalServerError
}

type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

type httpProber struct {
	client   *http.Client
	insecure *http.Client
	resolver Resolver
}

func (p *httpProber) Probe(ctx context.Context, target string, ignoreTLS bool) (ProbeResult, error) {
	u, err := url.Parse(target)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("Prober.Probe: %w", err)
	}
	if u.Host == "" {
		return ProbeResult{}, fmt.Errorf("Prober.Probe: target %q has no host", target)
	}
	start := time.Now()
	res := ProbeResult{}

	if host := u.Hostname(); net.ParseIP(host) == nil {
		lookupCtx, cancel := context.WithTimeout(ctx, p.client.Timeout)
		_, err = p.resolver.LookupHost(lookupCtx, host)
		cancel()
		if err != nil {
			res.Err = err
			res.DNSFailed = true
			res.Duration = time.Since(start)
			res.Timestamp = time.Now()
			return res, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("Prober.Probe creating request: %w", err)
	}
	client := p.client
	if ignoreTLS && u.Scheme == "https" {
		client = p.insecure
	}
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	res.Timestamp = time.Now()
	if err != nil {
		res.Err = err
		res.Refused = errors.Is(err, syscall.ECONNREFUSED)
		return res, nil
	}
	resp.Body.Close()
	res.StatusCode = resp.StatusCode
	return res, nil
}

func NewProber(timeout time.Duration, resolver Resolver) Prober {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	noRedirect := func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport := transport.Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return &httpProber{
		client: &http.Client{
			Timeout:       timeout,
			Transport:     transport,
			CheckRedirect: noRedirect,
		},
		insecure: &http.Client{
			Timeout:       timeout,
			Transport:     insecureTransport,
			CheckRedirect: noRedirect,
		},
		resolver: resolver,
	}
}
