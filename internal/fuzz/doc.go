// Package fuzztests houses Go fuzz harnesses for the front end of the
// compiler (source -> lexer -> parser -> desugar). They guard against panics,
// hangs and broken spans on arbitrary inputs.
package fuzztests
