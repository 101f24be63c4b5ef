// Package vendors provides the VendorSource implementations and the factory
// that builds them from configuration. Each source kind knows how to fetch
// normalised observations from one kind of vendor feed.
//
// Built-in kinds are registered by NewFactory; callers may Register more.
package vendors
