// Package domain contains the core business entities and domain errors.
// It has no dependencies on other packages and defines the shared
// vocabulary used by services, ports, and adapters.
package domain
