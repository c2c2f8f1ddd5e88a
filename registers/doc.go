// Package registers provides typed 32-bit access to a memory-mapped
// hardware register block, including spin-polling primitives for
// hardware-ready handshakes.
//
// The Backend interface abstracts the physical access mechanism so the
// same register-programming code runs against real mapped hardware and
// against the in-memory backend used by tests.
package registers
