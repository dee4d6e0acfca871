package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"tinytrail/internal/pkg/apierr"
	"tinytrail/internal/pkg/dates"
	"tinytrail/internal/transport"
)

// ClickRecord is one (date, count) observation of link clicks.
type ClickRecord struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// Result is a date-ascending series plus its derived grand total. The order
// is re-derived on every query from the date values alone; the transport's
// enumeration order carries no meaning.
type Result struct {
	Records []ClickRecord
	Total   int64
}

// Snapshot is the published state a caller renders from.
type Snapshot struct {
	Result
	Loading bool
	Err     error
}

// Aggregator fetches click analytics for a date range and owns the
// loading/result/error lifecycle of one logical query. Overlapping queries
// are resolved latest-wins: a slow early response never overwrites the
// result of a later one.
type Aggregator struct {
	dispatcher *transport.Dispatcher

	mu      sync.Mutex
	seq     uint64
	loading bool
	result  Result
	err     error
}

func NewAggregator(dispatcher *transport.Dispatcher) *Aggregator {
	return &Aggregator{dispatcher: dispatcher}
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{Result: a.result, Loading: a.loading, Err: a.err}
}

// QueryTotals fetches the caller's aggregate clicks-per-day map for the
// range and reshapes it into a sorted series.
func (a *Aggregator) QueryTotals(ctx context.Context, r dates.Range) (Result, error) {
	seq := a.begin()

	if !r.Complete() {
		return a.publish(seq, Result{Records: []ClickRecord{}}, apierr.ErrIncompleteRange)
	}
	if r.Inverted() {
		// Out-of-order bounds select nothing; resolved locally.
		return a.publish(seq, Result{Records: []ClickRecord{}}, nil)
	}

	resp, err := a.dispatcher.Dispatch(ctx, http.MethodGet, "/api/urls/totalclicks", rangeQuery(r), nil)
	if err != nil {
		return a.publish(seq, Result{Records: []ClickRecord{}}, err)
	}
	if resp.Status == http.StatusNotFound {
		// No data for the range is not an error.
		return a.publish(seq, Result{Records: []ClickRecord{}}, nil)
	}
	if serverErr := resp.ServerError(); serverErr != nil {
		return a.publish(seq, Result{Records: []ClickRecord{}}, serverErr)
	}

	var raw map[string]json.RawMessage
	if err := resp.DecodeJSON(&raw); err != nil {
		return a.publish(seq, Result{Records: []ClickRecord{}}, err)
	}

	byDate := make(map[string]int64, len(raw))
	for date, value := range raw {
		clicks, ok := coerceCount(value)
		if !ok {
			log.Debug().Str("date", date).Msg("dropping malformed click count")
			continue
		}
		byDate[date] += clicks
	}
	return a.publish(seq, reshape(byDate), nil)
}

// clickEvent is one entry of the per-URL analytics payload.
type clickEvent struct {
	ClickDate string          `json:"clickDate"`
	Count     json.RawMessage `json:"count"`
}

// QueryURL fetches the clicks-per-day breakdown for one short URL. Same
// reshape/sort/sum contract as QueryTotals against an array-shaped payload.
func (a *Aggregator) QueryURL(ctx context.Context, shortURL string, r dates.Range) (Result, error) {
	seq := a.begin()

	if !r.Complete() {
		return a.publish(seq, Result{Records: []ClickRecord{}}, apierr.ErrIncompleteRange)
	}
	if r.Inverted() {
		return a.publish(seq, Result{Records: []ClickRecord{}}, nil)
	}

	path := "/api/urls/analytics/" + url.PathEscape(shortURL)
	resp, err := a.dispatcher.Dispatch(ctx, http.MethodGet, path, rangeQuery(r), nil)
	if err != nil {
		return a.publish(seq, Result{Records: []ClickRecord{}}, err)
	}
	if resp.Status == http.StatusNotFound {
		return a.publish(seq, Result{Records: []ClickRecord{}}, nil)
	}
	if serverErr := resp.ServerError(); serverErr != nil {
		return a.publish(seq, Result{Records: []ClickRecord{}}, serverErr)
	}

	var events []clickEvent
	if err := resp.DecodeJSON(&events); err != nil {
		return a.publish(seq, Result{Records: []ClickRecord{}}, err)
	}

	byDate := make(map[string]int64, len(events))
	for _, event := range events {
		clicks, ok := coerceCount(event.Count)
		if !ok {
			log.Debug().Str("date", event.ClickDate).Msg("dropping malformed click count")
			continue
		}
		byDate[event.ClickDate] += clicks
	}
	return a.publish(seq, reshape(byDate), nil)
}

// begin stamps a new query as the latest one and flips the loading flag.
func (a *Aggregator) begin() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	a.loading = true
	return a.seq
}

// publish applies a finished query's outcome, but only if it is still the
// latest one issued. A stale outcome is returned to its own caller and
// otherwise discarded.
func (a *Aggregator) publish(seq uint64, result Result, err error) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if seq == a.seq {
		a.result = result
		a.err = err
		a.loading = false
	} else {
		log.Debug().Uint64("seq", seq).Uint64("latest", a.seq).Msg("discarding stale analytics response")
	}
	return result, err
}

func rangeQuery(r dates.Range) url.Values {
	return url.Values{
		"startDate": {dates.FormatWire(r.Start)},
		"endDate":   {dates.FormatWire(r.End)},
	}
}

// reshape turns the per-date accumulation into a date-ascending series with
// its total. Dates are in the fixed wire layout, so lexical order is
// calendar order.
func reshape(byDate map[string]int64) Result {
	records := make([]ClickRecord, 0, len(byDate))
	var total int64
	for date, clicks := range byDate {
		records = append(records, ClickRecord{Date: date, Clicks: clicks})
		total += clicks
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})
	return Result{Records: records, Total: total}
}

// coerceCount accepts a JSON integer or an integer string; anything else,
// including fractional and negative values, is malformed and dropped.
func coerceCount(raw json.RawMessage) (int64, bool) {
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		if v, err := number.Int64(); err == nil && v >= 0 {
			return v, true
		}
		return 0, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v >= 0 {
			return v, true
		}
	}
	return 0, false
}
