package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/trisend/trisend/internal/app/model"
	"github.com/trisend/trisend/internal/app/repository"
	infraPrometheus "github.com/trisend/trisend/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Outcome is the decision taken for a short-code request.
type Outcome string

const (
	OutcomeRedirect          Outcome = "redirect"
	OutcomePasswordChallenge Outcome = "password"
	OutcomeNotFound          Outcome = "notfound"
	OutcomeExpired           Outcome = "expired"
	OutcomeLimitReached      Outcome = "limit"
	OutcomeError             Outcome = "error"
	OutcomeReserved          Outcome = "reserved"
)

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,}$`)

// reservedPrefixes belong to application routes and are never looked up.
var reservedPrefixes = []string{
	"login", "signup", "dashboard", "admin", "api",
	"webhook", "health", "favicon.ico", "_next",
}

// IsShortCode reports whether segment has the shape of a short code.
func IsShortCode(segment string) bool {
	return codePattern.MatchString(segment)
}

// IsReserved reports whether code starts with a reserved route prefix, ignoring case.
func IsReserved(code string) bool {
	lower := strings.ToLower(code)
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Resolution is the result of resolving a code. Link is set for
// OutcomeRedirect and OutcomePasswordChallenge.
type Resolution struct {
	Outcome Outcome
	Link    *model.ShortLink
}

// LinkResolver applies the link policies in fixed order:
// existence, expiry, click limit, password, redirect.
type LinkResolver struct {
	links  repository.LinkStore
	logger *zap.Logger
	now    func() time.Time
}

// NewLinkResolver returns a resolver reading from links.
func NewLinkResolver(links repository.LinkStore, logger *zap.Logger) *LinkResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkResolver{links: links, logger: logger, now: time.Now}
}

// Resolve decides what to do with code. It never returns an error; lookup
// failures become OutcomeError.
func (r *LinkResolver) Resolve(ctx context.Context, code string) Resolution {
	res := r.resolve(ctx, code)
	infraPrometheus.LinkResolutions.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

func (r *LinkResolver) resolve(ctx context.Context, code string) Resolution {
	if IsReserved(code) {
		return Resolution{Outcome: OutcomeReserved}
	}
	if !IsShortCode(code) {
		return Resolution{Outcome: OutcomeNotFound}
	}

	link, err := r.links.Get(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return Resolution{Outcome: OutcomeNotFound}
		}
		r.logger.Error("short link lookup failed", zap.String("code", code), zap.Error(err))
		return Resolution{Outcome: OutcomeError}
	}

	switch {
	case link == nil || link.OriginalURL == "":
		return Resolution{Outcome: OutcomeNotFound}
	case link.Expired(r.now()):
		return Resolution{Outcome: OutcomeExpired}
	case link.LimitReached():
		return Resolution{Outcome: OutcomeLimitReached}
	case link.Protected():
		return Resolution{Outcome: OutcomePasswordChallenge, Link: link}
	default:
		return Resolution{Outcome: OutcomeRedirect, Link: link}
	}
}
