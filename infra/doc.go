// Package infra holds the adapters behind the core interfaces: MILP
// backends, metrics sinks, run archives, the MQTT publisher and the Sentry
// monitor. Core packages never import it; app wires it in.
package infra
