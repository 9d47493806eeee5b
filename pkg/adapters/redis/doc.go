// Package redis stores flow definitions in Redis and provides a Redis-backed
// ports.DistributedLocker for hosts running several replicas.
package redis
