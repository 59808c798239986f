package schedule

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// IdGenerator hands out sequential integer ids starting one past
// whatever maximum it was seeded with, so a restarted batch run can
// resume numbering without colliding with ids already emitted to a
// downstream sink.
type IdGenerator struct {
	next int
}

// NewIdGenerator seeds the generator to continue after maxSeen.
func NewIdGenerator(maxSeen int) *IdGenerator {
	return &IdGenerator{next: maxSeen + 1}
}

// Next returns the next id and advances the generator.
func (g *IdGenerator) Next() int {
	id := g.next
	g.next++
	return id
}

// calendarIdentity is the hash key used to recognise two Calendars as
// the "same" GTFS service: same date range, mask and exclusion set.
func calendarIdentity(c *Calendar) string {
	dates := make([]string, 0, len(c.Excludes))
	for d := range c.Excludes {
		dates = append(dates, d.Format("20060102"))
	}
	sort.Strings(dates)

	var b strings.Builder
	b.WriteString(c.Start.Format("20060102"))
	b.WriteString(c.End.Format("20060102"))
	b.WriteString(c.binaryDays())
	b.WriteString(strings.Join(dates, ","))
	return hashString(b.String())
}

// shapeIdentity hashes a sequence of stop ids (in visiting order) into a
// stable shape key, so two trips stopping at the same locations in the
// same order always share one shapes.txt entry.
func shapeIdentity(stopIDs []string) string {
	return hashString(strings.Join(stopIDs, "|"))
}

func hashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

// roundToMinute truncates t to whole minutes. Nothing in the package
// calls it; the builder takes departureHour straight from the first
// stop's departure hour.
func roundToMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
