// Package pg owns Postgres connectivity: pool construction with retries,
// embedded goose migrations, a healthcheck adapter, and error classifiers
// for the SQLSTATEs repositories care about.
package pg
