// Package feed decodes the normalised JSON listing format shared by vendor
// sources and normalises vendor price text.
package feed
