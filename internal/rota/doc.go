// Package rota provides the data model and merge pipeline for duty-roster tables.
//
// A RawRow is one parsed table row, an ordered mapping from column header to cell
// text. The Aggregator fetches rows from every configured source concurrently,
// removes exact duplicates, strips the internal "Shift Instructions" column and
// classifies each remaining row into a Record with a staffing Status derived from
// the "Volunteers Confirmed" column.
package rota
