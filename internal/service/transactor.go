package service

import "context"

// Transactor runs fn as one unit of work: every repository call made with
// the ctx passed to fn commits or rolls back together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
