/*
Photoseed is a command-line tool for bulk-loading the photo stream
database from a JSON Lines manifest.

Usage:

	photoseed import <manifest>
	photoseed stats

Each manifest line describes one photo:

	{"project":"alps","filename":"IMG_0001.CR3","captured_at":"2024-03-01T10:00:00Z","file_type":"raw","size":24117248,"rating":3,"flagged":true,"tags":["keeper"]}

Blank lines and lines starting with # are skipped. The whole manifest is
validated before any row is written, and re-importing the same manifest
updates capture metadata in place rather than duplicating photos.

The tool reads DATABASE_DIR to find the database (default /database) and
honors SEED_WORKERS to override the number of concurrent insert workers.
*/
package main
