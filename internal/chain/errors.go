package chain

import "errors"

var (
	ErrNotFound    = errors.New("no option data for this symbol/expiry")
	ErrRateLimited = errors.New("rate limited by provider")
	ErrNoQuote     = errors.New("no spot quote available")
)
