// Package fixture implements a VendorSource backed by local JSON files.
//
// Listings for a query live at <dir>/<vendor-id>/<query-slug>.json, where
// the slug is the lower-cased query with runs of other characters replaced
// by "-" ("Sony WH-1000XM4" -> "sony-wh-1000xm4"). A missing file means the
// vendor has no listings for the query. Fixtures drive demos, offline runs
// and tests.
package fixture
