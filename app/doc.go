// Package app assembles the process: configuration, logging, the retrieval
// pipeline, the GraphQL proxy and the protocol server.
package app
