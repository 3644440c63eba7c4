package capture

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// The canvas exposes no DOM for its content, so input is synthesized as events
// dispatched on the element itself at canvas-relative coordinates.
const (
	jsPointerClick = `(x, y) => {
		const rect = this.getBoundingClientRect();
		const init = {clientX: rect.left + x, clientY: rect.top + y, bubbles: true, pointerType: 'mouse'};
		this.dispatchEvent(new PointerEvent('pointerdown', init));
		this.dispatchEvent(new PointerEvent('pointerup', init));
	}`

	jsWheel = `(deltaY, x, y) => {
		const rect = this.getBoundingClientRect();
		this.dispatchEvent(new WheelEvent('wheel', {
			clientX: rect.left + x,
			clientY: rect.top + y,
			deltaY: deltaY,
			bubbles: true
		}));
	}`
)

// Surface is a resolved rendering surface element.
type Surface struct {
	el *rod.Element
}

func (s *Surface) Screenshot(ctx context.Context) ([]byte, error) {
	return s.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}

func (s *Surface) Click(ctx context.Context, x, y float64) error {
	if _, err := s.el.Context(ctx).Eval(jsPointerClick, x, y); err != nil {
		return fmt.Errorf("dispatch pointer events: %w", err)
	}
	return nil
}

func (s *Surface) Wheel(ctx context.Context, deltaY, x, y float64) error {
	if _, err := s.el.Context(ctx).Eval(jsWheel, deltaY, x, y); err != nil {
		return fmt.Errorf("dispatch wheel event: %w", err)
	}
	return nil
}
