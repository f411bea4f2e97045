// Package release resolves the latest published release of the
// application, downloads its archive, unpacks it and deletes the archive.
//
// The same download-and-extract path restores the precompiled native
// asset of the core sub-application.
package release
