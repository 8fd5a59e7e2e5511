//go:build sbedebug

package protocol

const orderChecks = true
