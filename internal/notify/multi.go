package notify

import "context"

// MultiNotifier fans out reports to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that dispatches to all provided
// notifiers, skipping nil entries.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	filtered := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier == nil {
			continue
		}
		filtered = append(filtered, notifier)
	}
	return &MultiNotifier{notifiers: filtered}
}

// Notify implements Notifier. All notifiers run; the first error wins.
func (m *MultiNotifier) Notify(ctx context.Context, report Report) error {
	var firstErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Notify(ctx, report); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
