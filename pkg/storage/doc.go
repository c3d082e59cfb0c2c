// Package storage manages the destination directory of a harvest.
//
// Files are named by the final path segment of their media URL. Save writes
// through a temporary file and rename, sets the modification time to the
// item's creation time and reports a blake3 checksum along with the image
// dimensions when the content decodes as JPEG, PNG, GIF or WebP.
package storage
