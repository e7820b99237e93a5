// Package retry implements retry with exponential backoff for transient
// database failures. The classifier decides whether an error is worth
// retrying; the strategy decides how long to wait; the executor ties the
// two together around an operation.
//
// The ETL core itself never retries (failures surface to the caller);
// retry is applied only at the connection boundary.
package retry
