// Package fuzztests houses Go fuzz harnesses for the front end
// (lexer -> parser -> resolver). They guard against panics, hangs and
// broken span invariants on arbitrary input.
//
// Не делает: генерацию корпусов, запуск сервера анализа.
package fuzztests
