// Package shop implements the commerce operations: mutations that keep the
// referential and quantity rules, and the named read questions.
//
// Every operation builds one queryir query per question, compiles it for the
// store's dialect and runs it. Aggregates, per-parent subqueries and ranks
// are computed by the database in that one statement; the service never
// loops over parents issuing child queries.
//
// # Errors
//
// Operations return *Error with one of four codes: NOT_FOUND, DUPLICATE,
// VALIDATION and UNEXPECTED. Unexpected failures are logged once, at the
// operation boundary, with a generated operation id that is also carried in
// the returned message. An empty result is success, never an error, and a
// failed read never returns partial data.
package shop
