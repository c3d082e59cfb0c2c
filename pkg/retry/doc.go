// Package retry runs an operation again after transient failures.
//
// Do passes the attempt number to the operation so a caller can change how
// the second attempt is made. The download workers use Once, which retries
// a transient fetch failure a single time after a fixed delay:
//
//	err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
//	    if attempt == 1 {
//	        return fetchWithSession(ctx)
//	    }
//	    return fetchAnonymously(ctx)
//	}, retry.Once(5*time.Second, log))
//
// The paginator uses an exponential backoff for transport failures.
package retry
