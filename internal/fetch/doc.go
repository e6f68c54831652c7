// Package fetch reads module bytes from the filesystem or the network.
//
// Local files are read whole. Remote modules are fetched with a single GET
// through a shared client whose timeout bounds the entire exchange; there are
// no retries. Failures are reported with the module error taxonomy so callers
// can tell I/O, transport and upstream status problems apart.
package fetch
