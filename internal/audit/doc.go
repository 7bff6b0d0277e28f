// Package audit computes the health and deep-dive reports over loaded
// datasets. Both entry points are pure functions: they take tables, return
// typed metrics plus derived tables, and never touch the clock, the
// filesystem, or a database. Rows that fail to parse are skipped or counted
// as missing so that ratty input degrades the report instead of aborting it.
package audit
