package server

import "context"

type activeContext struct {
	context.Context
	context.CancelFunc
}
