/*
The stache library.

This library renders mustache templates against data sourced from local files
(JSON, YAML or JavaScript modules), remote URLs, or inline values, and writes
the results to destination paths.

A Session owns the per-run request cache so that repeated references to the
same URL are fetched once. A Batch drives many render jobs concurrently and
reports a single aggregated outcome.
*/
package stache
