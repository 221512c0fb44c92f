// Package wire defines the websocket message formats for the live data
// pipeline and their JSON encoding.
//
// All messages are JSON objects with a "type" discriminator:
//
//	server -> client:
//	  {"type":"pv_update","pv":"SIM:TEMP:1","value":25.3,
//	   "timestamp":1234567890.123,"severity":0}
//
//	client -> server:
//	  {"type":"subscribe","pvs":["SIM:TEMP:1","SIM:MTR:1:RBV"]}
//	  {"type":"unsubscribe","pvs":["SIM:TEMP:1"]}
//	  {"type":"put","pv":"SIM:MTR:1:VAL","value":42.0}
//
// Subscribe and unsubscribe are idempotent set operations on the server
// side, not reference counts. Unknown message types decode successfully
// and are dropped by the receiver; a malformed frame is an error for the
// frame only, never for the connection.
package wire
