// Package cpu implements the stack machine and assembler for the UVM system.
//
// The machine consists of a byte addressed data memory, an immutable code
// memory, an operand stack of signed 16-bit values, and a program counter
// holding a byte offset into code memory. It has four instructions, each
// encoded in one to four bytes. The top three bits of the first byte
// select the instruction class, which alone determines the encoded size
// and the bit layout of the operand.
//
// The assembler reads one instruction per line, with `;` comments,
// `.equ` constants, and compile-time `$(...)` expression evaluation.
package cpu
