/*
Package resilience provides a circuit breaker for outbound calls.

The probe uses one breaker per DocuSeal host so that a host that keeps
failing is not hammered by every embed request.

# Usage

	breaker := resilience.New("docuseal.com", resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errClientSide)
		},
	})

	page, err := resilience.Do(ctx, breaker, func(ctx context.Context) (*Page, error) {
		return fetch(ctx, url)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           |
	                                           v
	                                         Open

Calls that end because their context was cancelled release their slot
without counting as a success or a failure.
*/
package resilience
