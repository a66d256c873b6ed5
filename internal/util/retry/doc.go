// Package retry provides exponential backoff retry logic for transient failures.
//
// The [Do] function retries an operation with configurable max attempts,
// initial delay, and maximum delay. It wraps every orchestration platform
// and secrets engine call that may fail transiently, and classifies errors
// into transient, conflict, and fatal kinds so callers can pick a recovery.
package retry
