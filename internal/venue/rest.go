package venue

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// restyClient is the subset of *resty.Client's request-building API used
// by restyDoer, narrowed so tests can substitute a fake transport.
type restyClient interface {
	R() *resty.Request
}

// newRestyDoer wraps a resty client as a restDoer.
func newRestyDoer(client *resty.Client) restDoer {
	return &restyDoer{client: client}
}

func (d *restyDoer) getJSON(ctx context.Context, path string, query map[string]string, out any) error {
	req := d.client.R().SetContext(ctx).SetResult(out)
	if len(query) > 0 {
		req = req.SetQueryParams(query)
	}
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}
