/*
Package observability exposes build metrics and hook plumbing for document
construction.

Metrics are fed entirely through domain.LifecycleHooks so the tree itself
stays free of metrics code, and Combine fans one event stream out to any
number of hook sets (logging, metrics, host callbacks).
*/
package observability
