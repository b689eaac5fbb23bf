// Package core defines the shared conversational types used across the
// chatbot: role-based content turns with heterogeneous parts (text, function
// calls, function responses), persisted messages and sessions. Every other
// package depends on core; core depends on nothing but the uuid generator.
package core
