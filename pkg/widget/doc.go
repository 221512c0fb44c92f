// Package widget implements the dashboard widget kinds and their
// capability interface.
//
// Each widget kind is a tagged variant behind the Widget interface:
// it reports the PV names it wants (SubscribePVs), consumes routed
// updates (Update) and renders its current state as text (Render).
// Dispatch is through a type-keyed constructor registry that callers
// build and pass in explicitly; there is no process-wide widget table.
//
// Widgets that write back to the instrument (numeric input, enum
// selector, motor) receive a PutFunc at construction time. Whether the
// put actually reaches the instrument depends on the session state; a
// put while disconnected is dropped by the session and the operator
// retries.
//
// Composite widgets (motor) subscribe to several names derived from one
// base and route each update to the matching internal field by suffix.
// Simple widgets match their single configured PV by equality.
package widget
