// Package store holds the state shared between dashboard widgets: the selected
// location, the watchlist, the temperature unit, the news categories and the
// widget layout. It is in-memory only and lives as long as the process.
package store
