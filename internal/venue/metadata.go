package venue

import (
	"time"

	"github.com/go-resty/resty/v2"

	"bookmerge/pkg/types"
)

// Metadata is the per-(venue, symbol) fixed-point configuration resolved
// once at connector startup from the venue's REST info endpoint.
type Metadata struct {
	Symbol     types.Symbol
	PriceScale int32
	QtyScale   int32
}

// newRESTClient builds a resty client for one venue's REST base URL, with a
// fixed timeout and retry-on-5xx discipline applied to every outbound call.
func newRESTClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})
}

// scaleOf returns the number of fractional digits in a decimal string like
// "0.01000000", with trailing zeros trimmed (so "0.01000000" is scale 2,
// not 8).
func scaleOf(decimalStr string) int32 {
	dot := -1
	for i, r := range decimalStr {
		if r == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return 0
	}
	frac := decimalStr[dot+1:]
	end := len(frac)
	for end > 0 && frac[end-1] == '0' {
		end--
	}
	return int32(end)
}

const maxQtyScale = 8
