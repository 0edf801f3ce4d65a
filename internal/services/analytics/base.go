package analytics

import (
    "context"
    "errors"
    "fmt"
    "time"

    "MineWatch/pkg/breaker"
    xhttp "MineWatch/pkg/http"
)

// HTTPServiceBase provides a DRY foundation for remote analytics clients.
// It centralizes client construction, breaker use and JSON POST handling.
type HTTPServiceBase struct {
    baseURL string
    client  *xhttp.Client
    breaker *breaker.Breaker
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL.
func NewHTTPServiceBase(baseURL string, timeout time.Duration, br *breaker.Breaker) *HTTPServiceBase {
    if timeout <= 0 {
        timeout = 3 * time.Second
    }
    return &HTTPServiceBase{
        baseURL: baseURL,
        client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
        breaker: br,
    }
}

// PostJSON posts the given payload to `path` under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
    if b.client == nil || b.baseURL == "" {
        return fmt.Errorf("analytics http client not initialized")
    }
    call := func() error {
        return b.client.SendAndParse(ctx, &xhttp.RequestOptions{
            Method: xhttp.MethodPost,
            URL:    b.baseURL + path,
            Headers: map[string]string{
                "Content-Type": "application/json",
            },
            Body: payload,
        }, dest)
    }
    var err error
    if b.breaker != nil {
        err = b.breaker.Do(call)
    } else {
        err = call()
    }
    if err != nil {
        return fmt.Errorf("post %s: %w", path, err)
    }
    return nil
}

// PostJSONWithRetry posts JSON with up to `attempts` tries for transient errors.
// Client errors (4xx) and an open breaker are not retried.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}, attempts int) error {
    if attempts <= 1 {
        return b.PostJSON(ctx, path, payload, dest)
    }
    var err error
    for i := 1; i <= attempts; i++ {
        err = b.PostJSON(ctx, path, payload, dest)
        if err == nil || !retryable(err) {
            return err
        }
        if i == attempts {
            break
        }
        // simple backoff
        select {
        case <-time.After(time.Duration(i) * 50 * time.Millisecond):
        case <-ctx.Done():
            return ctx.Err()
        }
    }
    return err
}

func retryable(err error) bool {
    if errors.Is(err, breaker.ErrOpen) || errors.Is(err, context.Canceled) {
        return false
    }
    var se *xhttp.StatusError
    if errors.As(err, &se) {
        return se.Retryable()
    }
    return true
}
