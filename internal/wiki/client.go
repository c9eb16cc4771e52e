// Package wiki queries the MediaWiki action API for which of a batch of page
// titles have no article.
package wiki

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/rshade/citygap/internal/cache"
	"github.com/rshade/citygap/internal/logging"
)

// DefaultEndpoint is the English Wikipedia action API.
const DefaultEndpoint = "https://en.wikipedia.org/w/api.php"

// titleSeparator joins multiple titles into one query parameter.
const titleSeparator = "|"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 16 << 20

// Candidate is a title with no article, with its position in the batch it
// was looked up in. Index is meaningless outside that batch.
type Candidate struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Cache is the subset of cache.FileStore the client uses.
type Cache interface {
	Get(key string) (*cache.Entry, error)
	Set(key string, data json.RawMessage) error
}

// Options configures a Client.
type Options struct {
	Endpoint string
	// Token is sent as "Authorization: Bearer <token>" when non-empty.
	Token     string
	UserAgent string
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration
	// RequestsPerSecond of zero disables pacing.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Cache             Cache
}

func (o *Options) defaults() {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
}

// Client looks up batches of titles. It is not safe for concurrent use.
type Client struct {
	endpoint  *url.URL
	token     string
	userAgent string
	hc        *http.Client
	limiter   *rate.Limiter
	cache     Cache
}

// New builds a Client from opts.
func New(opts Options) (*Client, error) {
	opts.defaults()

	u, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint %q: %w", opts.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q must be an http(s) URL", opts.Endpoint)
	}

	c := &Client{
		endpoint:  u,
		token:     strings.TrimSpace(opts.Token),
		userAgent: opts.UserAgent,
		hc:        opts.HTTPClient,
		cache:     opts.Cache,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c, nil
}

// Authenticated reports whether requests carry a bearer credential.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

type apiResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Query *struct {
		Normalized []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"normalized"`
		Pages map[string]struct {
			Title string `json:"title"`
		} `json:"pages"`
	} `json:"query"`
}

// MissingTitles issues one request for titles and returns those that have no
// article, ordered by batch position.
func (c *Client) MissingTitles(ctx context.Context, titles []string) ([]Candidate, error) {
	if len(titles) == 0 {
		return nil, nil
	}

	log := logging.FromContext(ctx).With().Str("component", "wiki").Logger()
	key := cache.BatchKey(c.endpoint.String(), titles)

	if cached, age, ok := c.fromCache(key); ok {
		log.Debug().Ctx(ctx).
			Int("titles", len(titles)).
			Int("missing", len(cached)).
			Dur("age", age).
			Msg("lookup served from cache")
		return cached, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	body, err := c.fetch(ctx, titles)
	if err != nil {
		log.Debug().Ctx(ctx).Err(err).Int("titles", len(titles)).Msg("lookup request failed")
		return nil, err
	}

	missing, err := parseMissing(body, titles)
	if err != nil {
		return nil, err
	}

	log.Debug().Ctx(ctx).
		Int("titles", len(titles)).
		Int("missing", len(missing)).
		Dur("duration", time.Since(start)).
		Msg("lookup completed")

	c.toCache(ctx, key, missing)
	return missing, nil
}

func (c *Client) fetch(ctx context.Context, titles []string) ([]byte, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("titles", strings.Join(titles, titleSeparator))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthenticationError{StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &NetworkError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("reading response body: %w", err)}
	}
	return body, nil
}

// parseMissing decodes a query response and maps every page with a negative
// id back to its position in titles.
func parseMissing(body []byte, titles []string) ([]Candidate, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ResponseFormatError{Reason: "invalid JSON", Err: err}
	}
	if resp.Error != nil {
		if isAuthCode(resp.Error.Code) {
			return nil, &AuthenticationError{StatusCode: http.StatusOK, Code: resp.Error.Code, Message: resp.Error.Info}
		}
		return nil, &ResponseFormatError{Reason: fmt.Sprintf("api error %s: %s", resp.Error.Code, resp.Error.Info)}
	}
	if resp.Query == nil || resp.Query.Pages == nil {
		return nil, &ResponseFormatError{Reason: "missing query.pages"}
	}

	idx := newTitleIndex(titles)
	for _, n := range resp.Query.Normalized {
		idx.alias(n.To, n.From)
	}

	var missing []Candidate
	for id, page := range resp.Query.Pages {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, &ResponseFormatError{Reason: fmt.Sprintf("page id %q is not an integer", id), Err: err}
		}
		if n >= 0 {
			continue
		}

		pos, ok := idx.lookup(page.Title)
		if !ok {
			return nil, &ResponseFormatError{Reason: fmt.Sprintf("title %q is not in the requested batch", page.Title)}
		}
		missing = append(missing, Candidate{Name: page.Title, Index: pos})
	}

	slices.SortFunc(missing, func(a, b Candidate) int {
		return cmp.Or(cmp.Compare(a.Index, b.Index), strings.Compare(a.Name, b.Name))
	})
	return missing, nil
}

func isAuthCode(code string) bool {
	switch code {
	case "readapidenied", "badtoken", "mwoauth-invalid-authorization", "permissiondenied":
		return true
	}
	return strings.Contains(code, "oauth")
}

// titleIndex resolves a title returned by the API to its first position in
// the requested batch: exact match first, then through the API's reported
// normalisations, then by Unicode NFC form.
type titleIndex struct {
	exact   map[string]int
	nfc     map[string]int
	aliases map[string]string
}

func newTitleIndex(titles []string) *titleIndex {
	idx := &titleIndex{
		exact:   make(map[string]int, len(titles)),
		nfc:     make(map[string]int, len(titles)),
		aliases: make(map[string]string),
	}
	for i, t := range titles {
		if _, ok := idx.exact[t]; !ok {
			idx.exact[t] = i
		}
		k := norm.NFC.String(t)
		if _, ok := idx.nfc[k]; !ok {
			idx.nfc[k] = i
		}
	}
	return idx
}

func (idx *titleIndex) alias(normalized, requested string) {
	if _, ok := idx.aliases[normalized]; !ok {
		idx.aliases[normalized] = requested
	}
}

func (idx *titleIndex) lookup(title string) (int, bool) {
	if i, ok := idx.exact[title]; ok {
		return i, true
	}
	if from, ok := idx.aliases[title]; ok {
		if i, ok := idx.exact[from]; ok {
			return i, true
		}
	}
	i, ok := idx.nfc[norm.NFC.String(title)]
	return i, ok
}

// fromCache returns the cached result for key and how old it is.
func (c *Client) fromCache(key string) ([]Candidate, time.Duration, bool) {
	if c.cache == nil {
		return nil, 0, false
	}
	entry, err := c.cache.Get(key)
	if err != nil {
		return nil, 0, false
	}
	var missing []Candidate
	if err := json.Unmarshal(entry.Data, &missing); err != nil {
		return nil, 0, false
	}
	return missing, entry.Age(), true
}

func (c *Client) toCache(ctx context.Context, key string, missing []Candidate) {
	if c.cache == nil {
		return
	}
	if missing == nil {
		missing = []Candidate{}
	}
	data, err := json.Marshal(missing)
	if err == nil {
		err = c.cache.Set(key, data)
	}
	if err != nil && !errors.Is(err, cache.ErrDisabled) {
		logging.FromContext(ctx).Warn().Ctx(ctx).Err(err).Str("component", "wiki").Msg("could not cache lookup result")
	}
}
