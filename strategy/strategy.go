// Package strategy defines the ordered acquisition strategies tried for a
// single conversion, and the policy deciding whether a failed attempt is
// followed by the next one.
package strategy

import (
	"strings"

	"github.com/samber/lo"
)

type Strategy struct {
	Name string
	// Client is the youtube player_client hint passed to the downloader. Empty
	// leaves the downloader's own default in place.
	Client         string
	UseCredentials bool
}

func (s Strategy) String() string {
	return s.Name
}

type Ladder []Strategy

// DefaultLadder tries every client with cookies before falling back to
// anonymous access.
func DefaultLadder() Ladder {
	return Ladder{
		{Name: "web+cookies", Client: "web", UseCredentials: true},
		{Name: "android+cookies", Client: "android", UseCredentials: true},
		{Name: "web", Client: "web", UseCredentials: false},
		{Name: "android", Client: "android", UseCredentials: false},
	}
}

// Fallback is the two-step ladder: the client with cookies, then without.
func Fallback(client string) Ladder {
	return Ladder{
		{Name: client + "+cookies", Client: client, UseCredentials: true},
		{Name: client, Client: client, UseCredentials: false},
	}
}

// Applicable drops strategies requiring credentials when none are loaded.
func (l Ladder) Applicable(credentialsLoaded bool) Ladder {
	return lo.Filter(l, func(s Strategy, _ int) bool {
		return credentialsLoaded || !s.UseCredentials
	})
}

func (l Ladder) Names() []string {
	return lo.Map(l, func(s Strategy, _ int) string { return s.Name })
}

// RetryPredicate reports whether the captured error text of a failed attempt
// that used credentials justifies retrying without them.
type RetryPredicate func(stderr string) bool

// ContainsFold returns a predicate matching marker case-insensitively. It is a
// heuristic over the downloader's human readable output and breaks whenever the
// downloader rewords its messages.
func ContainsFold(marker string) RetryPredicate {
	marker = strings.ToLower(marker)

	return func(stderr string) bool {
		return strings.Contains(strings.ToLower(stderr), marker)
	}
}

// ShouldRetryWithoutCredentials is the default predicate of the fallback policy.
var ShouldRetryWithoutCredentials = ContainsFold("cookies")

type Mode int

const (
	// ModeLadder tries every applicable strategy in order.
	ModeLadder Mode = iota
	// ModeFallback only moves on from a failed credentialed attempt, and only
	// when the retry predicate matches its error text.
	ModeFallback
)

func (m Mode) String() string {
	switch m {
	case ModeLadder:
		return "ladder"
	case ModeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

type Policy struct {
	Mode  Mode
	Retry RetryPredicate
}

func LadderPolicy() Policy {
	return Policy{Mode: ModeLadder, Retry: nil}
}

func FallbackPolicy(retry RetryPredicate) Policy {
	return Policy{Mode: ModeFallback, Retry: lo.Ternary(nil == retry, ShouldRetryWithoutCredentials, retry)}
}

// Continue decides whether another strategy is attempted once failed exited
// non-zero with the given error text.
func (p Policy) Continue(failed Strategy, stderr string) bool {
	switch p.Mode {
	case ModeLadder:
		return true
	case ModeFallback:
		if !failed.UseCredentials {
			return false
		}
		retry := lo.Ternary(nil == p.Retry, ShouldRetryWithoutCredentials, p.Retry)

		return retry(stderr)
	default:
		panic("unexpected policy mode: " + p.Mode.String())
	}
}
