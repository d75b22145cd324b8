package scan

import "context"

// Stream walks root and streams Visit entries over a channel.
// If filesOnly is true, directory entries are omitted.
// errCh receives a single error (nil on success) after out is closed.
// Cancelling ctx stops the walk.
func (w *Walker) Stream(ctx context.Context, root string, filesOnly bool) (<-chan Visit, <-chan error) {
	out := make(chan Visit, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		err := w.Walk(ctx, root, func(v Visit) error {
			if filesOnly && v.IsDir {
				return nil
			}
			select {
			case out <- v:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(out)
		errCh <- err
	}()

	return out, errCh
}
