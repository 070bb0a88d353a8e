package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
)

// PageSource yields successive pages of MSISDNs. next is the cursor to pass for the
// following page and is only meaningful when the page is not empty.
type PageSource interface {
	NextPage(ctx context.Context, cursor string, size int) (msisdns []string, next string, err error)
}

const (
	SourceView       = "view"
	SourceSubscriber = "subscriber"
	SourceEval       = "eval"
)

// NewPageSource returns the source named by kind ("view", "subscriber" or "eval")
func NewPageSource(kind string, queries repositories.SubscriberQueryRepository) (PageSource, error) {
	switch kind {
	case SourceView, "":
		return &viewPageSource{queries: queries}, nil
	case SourceSubscriber:
		return &subscriberPageSource{queries: queries}, nil
	case SourceEval:
		return &evalPageSource{queries: queries}, nil
	default:
		return nil, fmt.Errorf("unknown page source %q", kind)
	}
}

// CursorKey scopes the stored cursor to one source. Each source encodes its cursor
// differently, so switching sources must not resume from another's position.
func CursorKey(base, kind string) string {
	if kind == "" {
		kind = SourceView
	}
	return base + ":" + kind
}

// viewPageSource pages the un-assessed view keyed by msisdn
type viewPageSource struct {
	queries repositories.SubscriberQueryRepository
}

func (s *viewPageSource) NextPage(ctx context.Context, cursor string, size int) ([]string, string, error) {
	page, err := s.queries.NextUnassessedPage(ctx, cursor, size)
	if err != nil || len(page) == 0 {
		return page, cursor, err
	}
	return page, page[len(page)-1], nil
}

// subscriberPageSource pages the whole subscriber table keyed by primary key
type subscriberPageSource struct {
	queries repositories.SubscriberQueryRepository
}

func (s *subscriberPageSource) NextPage(ctx context.Context, cursor string, size int) ([]string, string, error) {
	var afterPK int64
	if cursor != "" {
		pk, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, cursor, fmt.Errorf("subscriber cursor %q: %w", cursor, err)
		}
		afterPK = pk
	}

	subs, err := s.queries.SubscribersPage(ctx, afterPK, size)
	if err != nil || len(subs) == 0 {
		return nil, cursor, err
	}

	page := make([]string, len(subs))
	for i, sub := range subs {
		page[i] = sub.MSISDN
	}
	return page, strconv.FormatInt(subs[len(subs)-1].PK, 10), nil
}

// evalPageSource pages a fixed evaluation table by offset. The table is not
// changed by assessment, so offsets stay valid across a cycle.
type evalPageSource struct {
	queries repositories.SubscriberQueryRepository
}

func (s *evalPageSource) NextPage(ctx context.Context, cursor string, size int) ([]string, string, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, cursor, fmt.Errorf("eval cursor %q is not an offset", cursor)
		}
		offset = n
	}

	page, err := s.queries.EvalTablePage(ctx, offset, size)
	if err != nil || len(page) == 0 {
		return page, cursor, err
	}
	return page, strconv.Itoa(offset + len(page)), nil
}
