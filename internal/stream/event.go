package stream

import "time"

// Event is one decoded price update. The document is decoded generically;
// Symbol, Price and Time are pulled out of the usual fields when present and
// the full document stays available in Raw.
type Event struct {
	Symbol string
	Price  float64
	Time   time.Time
	Raw    map[string]any
}

func eventFrom(doc map[string]any) Event {
	ev := Event{Raw: doc}
	if s, ok := doc["symbol"].(string); ok {
		ev.Symbol = s
	}
	if p, ok := doc["price"].(float64); ok {
		ev.Price = p
	}
	if ts, ok := doc["timestamp"].(float64); ok {
		ev.Time = time.Unix(int64(ts), 0).UTC()
	}
	return ev
}
