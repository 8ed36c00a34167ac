package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"meetslot/internal/config"
	"meetslot/internal/ics"
	appLog "meetslot/internal/log"
	"meetslot/internal/model"
)

const (
	dateLayout = "2006-01-02"
	// defaultTTL bounds how stale a cached day may be when served to the
	// API. The cron refresher re-warms today well within it.
	defaultTTL = 5 * time.Minute
	// maxOccurrencesPerEvent caps a single day's recurrence expansion.
	maxOccurrencesPerEvent = 1500
)

// ErrNoFeeds is returned when every configured feed failed to load.
var ErrNoFeeds = errors.New("no calendar feed could be loaded")

// DayEvents is the projection of all configured feeds onto one local day.
type DayEvents struct {
	Date            string
	Events          []model.Event
	TruncatedUIDs   []string
	FailedSources   int
	LoadedAt        time.Time
	DisplayTimeZone string
}

type cacheEntry struct {
	day       DayEvents
	updatedAt time.Time
}

// Loader turns configured ICS feeds into per-day event lists and keeps a
// small in-memory cache keyed by date. It is safe for concurrent use.
type Loader struct {
	fetcher *ics.Fetcher
	sources []ics.Source
	loc     *time.Location
	ttl     time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewLoader builds a Loader for the feeds in cfg.
func NewLoader(cfg *config.Config, fetcher *ics.Fetcher) (*Loader, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("feed: timezone %q: %w", cfg.Timezone, err)
	}

	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		sources = append(sources, ics.Source{
			ID:       c.SourceID(),
			URL:      c.URL,
			Attendee: c.Attendee,
		})
	}

	return &Loader{
		fetcher: fetcher,
		sources: sources,
		loc:     loc,
		ttl:     defaultTTL,
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}, nil
}

// Location is the zone in which days are interpreted.
func (l *Loader) Location() *time.Location {
	return l.loc
}

// ParseDate parses YYYY-MM-DD in the loader's zone. An empty string means
// today.
func (l *Loader) ParseDate(s string) (time.Time, error) {
	if s == "" {
		return l.now().In(l.loc), nil
	}
	return time.ParseInLocation(dateLayout, s, l.loc)
}

// Events returns the events of the local day containing day, served from
// cache when fresh.
func (l *Loader) Events(ctx context.Context, day time.Time) (DayEvents, error) {
	key := day.In(l.loc).Format(dateLayout)

	l.mu.RLock()
	ce, ok := l.cache[key]
	l.mu.RUnlock()
	if ok && l.now().Sub(ce.updatedAt) < l.ttl {
		return ce.day, nil
	}

	de, err := l.load(ctx, day)
	if err != nil {
		return DayEvents{}, err
	}
	l.store(key, de)
	return de, nil
}

// Warm reloads today's events, bypassing the cache.
func (l *Loader) Warm(ctx context.Context) error {
	today := l.now().In(l.loc)
	de, err := l.load(ctx, today)
	if err != nil {
		return err
	}
	l.store(de.Date, de)
	appLog.Info("feed cache warmed", "date", de.Date, "event_count", len(de.Events), "failed_sources", de.FailedSources)
	return nil
}

func (l *Loader) load(ctx context.Context, day time.Time) (DayEvents, error) {
	dayStart, dayEnd := ics.DayBounds(day, l.loc)
	de := DayEvents{
		Date:            dayStart.Format(dateLayout),
		Events:          []model.Event{},
		LoadedAt:        l.now(),
		DisplayTimeZone: l.loc.String(),
	}
	if len(l.sources) == 0 {
		return de, nil
	}

	results, fetchErr := l.fetcher.FetchAll(ctx, l.sources)
	de.FailedSources = len(l.sources) - len(results)
	if len(results) == 0 {
		return DayEvents{}, fmt.Errorf("%w: %v", ErrNoFeeds, fetchErr)
	}

	parsed := make([]ics.ParsedEvent, 0)
	var parseErrs []error
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("feed: parse failed", err, "source", res.Source.ID)
			parseErrs = append(parseErrs, fmt.Errorf("parse %s: %w", res.Source.ID, err))
			de.FailedSources++
			continue
		}
		parsed = append(parsed, events...)
	}
	// Every source failed to fetch or parse.
	if de.FailedSources == len(l.sources) {
		return DayEvents{}, fmt.Errorf("%w: %v", ErrNoFeeds, errors.Join(append([]error{fetchErr}, parseErrs...)...))
	}

	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation:        l.loc,
		RangeStart:             dayStart,
		RangeEnd:               dayEnd,
		MaxOccurrencesPerEvent: maxOccurrencesPerEvent,
	})
	if err != nil {
		return DayEvents{}, err
	}

	de.Events = ics.ProjectDay(expanded.Occurrences, dayStart, l.loc)
	de.TruncatedUIDs = expanded.TruncatedEvents
	return de, nil
}

func (l *Loader) store(key string, de DayEvents) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, ce := range l.cache {
		if now.Sub(ce.updatedAt) >= l.ttl {
			delete(l.cache, k)
		}
	}
	l.cache[key] = cacheEntry{day: de, updatedAt: now}
}
