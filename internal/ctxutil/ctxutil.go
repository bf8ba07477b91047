// Package ctxutil combines two independent cancellation sources into one
// context, using the teacher's vendored github.com/sdboyer/constext. No
// other package of this module calls it; the collector's relocation chase
// runs under the caller's context alone.
package ctxutil

import (
	"context"

	"github.com/sdboyer/constext"
)

// Combine returns a context that is Done when either a or b is Done,
// carrying whichever's cancellation reason fired first.
func Combine(a, b context.Context) (context.Context, context.CancelFunc) {
	return constext.Cons(a, b)
}
