// Package catalog loads the tracked-item list from a public Google Sheet.
//
// The sheet is fetched through its CSV export endpoint, so the monitor needs
// no Sheets API credentials. The catalog is re-read at the start of every poll
// cycle; edits to the sheet take effect without a restart.
package catalog
