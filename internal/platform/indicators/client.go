package indicators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	UF  = "uf"
	UTM = "utm"
)

var ErrNoValue = errors.New("indicator has no value for date")

// Values are the monetary units published for one date.
type Values struct {
	Date time.Time       `json:"date"`
	UF   decimal.Decimal `json:"uf"`
	UTM  decimal.Decimal `json:"utm"`
}

// Client reads a mindicador-style API: GET {base}/api/{indicator}/{dd-mm-yyyy}.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Retries    uint64
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Retries:    2,
	}
}

type seriesResponse struct {
	Serie []struct {
		Fecha time.Time       `json:"fecha"`
		Valor decimal.Decimal `json:"valor"`
	} `json:"serie"`
}

// Fetch returns the value of indicator on date. Server errors and transport
// failures are retried with exponential backoff.
func (c *Client) Fetch(ctx context.Context, indicator string, date time.Time) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/%s/%s", c.BaseURL, indicator, date.Format("02-01-2006"))
	backoff := retry.WithMaxRetries(c.Retries, retry.NewExponential(100*time.Millisecond))

	var value decimal.Decimal
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := c.fetchOnce(ctx, url)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch %s for %s: %w", indicator, date.Format(time.DateOnly), err)
	}
	return value, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return decimal.Zero, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return decimal.Zero, retry.RetryableError(fmt.Errorf("indicators service returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("indicators service returned %d", resp.StatusCode)
	}

	var body seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode indicators response: %w", err)
	}
	if len(body.Serie) == 0 || !body.Serie[0].Valor.IsPositive() {
		return decimal.Zero, ErrNoValue
	}
	return body.Serie[0].Valor, nil
}

// Values fetches UF and UTM for date concurrently.
func (c *Client) Values(ctx context.Context, date time.Time) (Values, error) {
	out := Values{Date: date}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.Fetch(ctx, UF, date)
		out.UF = v
		return err
	})
	g.Go(func() error {
		v, err := c.Fetch(ctx, UTM, date)
		out.UTM = v
		return err
	})
	if err := g.Wait(); err != nil {
		return Values{}, err
	}
	return out, nil
}
