// Package module holds the data model shared by the loading pipeline: resolved
// specifiers, specifier categories, fetch results, finished module records and
// the error taxonomy every stage reports through. It has no dependencies on the
// engine or on I/O so that classifier, fetcher, cache and coordinator can agree
// on one vocabulary.
package module
