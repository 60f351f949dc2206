package distribution

import (
	"fmt"
)

// UpstreamMetadataError indicates fetching artefact or location data from a
// collaborating service failed. Nothing was sent to any destination; the
// caller reports it as a gateway-style failure.
type UpstreamMetadataError struct {
	Op  string
	Err error
}

func (e *UpstreamMetadataError) Error() string {
	return fmt.Sprintf("failed to fetch %s from upstream service: %v", e.Op, e.Err)
}

func (e *UpstreamMetadataError) Unwrap() error {
	return e.Err
}

// DeliveryError indicates the retry budget for one destination leg was
// exhausted. The message carries the destination URL and a human-readable
// cause so the caller can report it verbatim.
type DeliveryError struct {
	DestinationURL string
	LastStatus     *int
	Reason         string
	Retries        int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("request to %s failed after %d retries due to: %s",
		e.DestinationURL, e.Retries, e.Reason)
}

// RateLimitedError indicates a destination was skipped because its outbound
// rate window is exhausted. Not retried within this distribution.
type RateLimitedError struct {
	DestinationURL string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s", e.DestinationURL)
}
