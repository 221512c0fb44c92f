// Package pv defines the core process-variable types shared by the client
// and server sides of the live data pipeline.
//
// A process variable (PV) is a named instrument channel. The instrument
// layer produces one Update per actual value change per subscribed name;
// nothing in this package deduplicates or reorders updates.
//
// # Derived names
//
// Composite devices expose several channels derived from one base name.
// A motor with base "SIM:MTR:1" has readback "SIM:MTR:1:RBV", setpoint
// "SIM:MTR:1:VAL" and moving flag "SIM:MTR:1:MOVN". The helpers in this
// package expand a base name into its derived set and match an incoming
// name back to the suffix, assuming the base is a strict prefix of every
// derived name.
package pv
