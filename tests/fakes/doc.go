// Package fakes provides mock implementations of external SDK clients
// for testing without real cloud services.
package fakes
