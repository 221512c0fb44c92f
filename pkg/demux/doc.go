// Package demux routes incoming PV updates to the widgets that
// subscribed to them. The router keeps an inverted index from PV name
// to widgets so delivery cost scales with the number of interested
// widgets, not the dashboard size. Updates for names no widget wants
// are dropped silently.
package demux
