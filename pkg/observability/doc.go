/*
Package observability provides tools for monitoring the Concord engine.

It turns the engine's lifecycle hooks into Prometheus metrics and structured
audit logs. Both produce a domain.LifecycleHooks value; combine them with
Combine and pass the result to concord.WithLifecycleHooks.
*/
package observability
