// Package notifications delivers push alerts through ntfy. The daemon pushes
// motion events, the nightly digest, and errors; each category can be
// silenced independently in the config. When no topic is configured every
// notification is a no-op so callers never need to nil-check.
package notifications
