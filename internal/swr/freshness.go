package swr

import "time"

// Freshness classifies a cached entry relative to the current clock.
type Freshness int

const (
    // Fresh entries are younger than the TTL and served as-is.
    Fresh Freshness = iota
    // Stale entries are past the TTL but inside the grace window; they are
    // still served while a refresh runs in the background.
    Stale
    // Expired entries are past TTL+grace and treated like a miss.
    Expired
)

func (f Freshness) String() string {
    switch f {
    case Fresh:
        return "fresh"
    case Stale:
        return "stale"
    default:
        return "expired"
    }
}

// StateAt classifies an entry age against a ttl and grace window. The three
// states partition [0, inf): age < ttl is Fresh, ttl <= age < ttl+grace is
// Stale, everything beyond is Expired.
func StateAt(age, ttl, grace time.Duration) Freshness {
    switch {
    case age < ttl:
        return Fresh
    case age < ttl+grace:
        return Stale
    default:
        return Expired
    }
}
