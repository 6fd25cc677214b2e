package tiingo

import (
	"fmt"
	"net/url"
	"time"

	"github.com/guttosm/tickerpulse/internal/domain/models"
)

const dateLayout = "2006-01-02"

// BuildRequestURL assembles the prices URL for one ticker. It is a pure
// function of its inputs: no parameter is ever emitted without a value.
//
// Rules:
//   - end defaults to today when zero.
//   - start is omitted entirely when zero (never "startDate=").
//   - freq overrides the default resampleFreq when non-empty.
func (c *Client) BuildRequestURL(ticker string, start, end time.Time, freq models.Frequency) string {
	q := url.Values{}
	for k, vs := range c.defaultQuery {
		q[k] = append([]string(nil), vs...)
	}

	if end.IsZero() {
		end = time.Now()
	}
	q.Set("endDate", end.Format(dateLayout))
	if !start.IsZero() {
		q.Set("startDate", start.Format(dateLayout))
	}
	if freq != "" {
		q.Set("resampleFreq", string(freq))
	}

	return fmt.Sprintf("%s/%s/prices?%s", c.baseURL, url.PathEscape(ticker), q.Encode())
}
