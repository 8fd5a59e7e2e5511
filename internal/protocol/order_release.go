//go:build !sbedebug

package protocol

// orderChecks enables the next-expected-field check on variable-length access.
const orderChecks = false
