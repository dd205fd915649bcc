package history

import "time"

// DefaultRingSize is the default call-history cap.
const DefaultRingSize = 1000

// CallRecord describes one remote call carried by the pool.
type CallRecord struct {
	// Endpoint is the logical endpoint name the caller supplied.
	Endpoint string

	// Cost is the quota units charged for the call.
	Cost int

	// Timestamp is when the call completed, UTC.
	Timestamp time.Time

	// KeyIndex is the credential that carried the call.
	KeyIndex int

	// Success reports whether the call succeeded.
	Success bool

	// ErrorMessage is the raw remote error text, empty on success.
	ErrorMessage string
}

// EndpointStats aggregates calls for one endpoint.
type EndpointStats struct {
	Calls  int
	Cost   int
	Errors int
}

// Stats summarizes call activity over a window.
type Stats struct {
	// Window is the period the statistics cover.
	Window time.Duration

	// TotalCalls, SuccessfulCalls and FailedCalls count records in the
	// window.
	TotalCalls      int
	SuccessfulCalls int
	FailedCalls     int

	// TotalCost sums the quota charged by successful calls.
	TotalCost int

	// Endpoints breaks activity down per endpoint name.
	Endpoints map[string]EndpointStats

	// HourlyCost buckets successful-call cost by hour, keyed
	// "2006-01-02 15:00".
	HourlyCost map[string]int
}
