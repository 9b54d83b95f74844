package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// FrameVisitor is called for every frame reached by WalkFrames. path is a
// readable chain such as "main > iframe#content".
type FrameVisitor func(frame *rod.Page, path string, depth int)

// WaitFrames waits until the page and every visible iframe in it have had
// no DOM changes for stable.
func WaitFrames(ctx context.Context, page *rod.Page, stable time.Duration) error {
	var errs []error
	WalkFrames(page.Context(ctx), func(frame *rod.Page, path string, _ int) {
		if err := frame.Context(ctx).WaitDOMStable(stable, 0); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	})
	return errors.Join(errs...)
}

// WalkFrames visits page and then every visible nested iframe depth-first.
// Frames that cannot be entered (cross-origin, detached) are skipped.
func WalkFrames(page *rod.Page, visit FrameVisitor) {
	walkFrames(page, "main", 0, visit)
}

func walkFrames(page *rod.Page, path string, depth int, visit FrameVisitor) {
	visit(page, path, depth)

	iframes, err := page.Elements("iframe")
	if err != nil {
		return
	}

	for i, iframe := range iframes {
		if visible, _ := iframe.Visible(); !visible {
			continue
		}
		frame, err := iframe.Frame()
		if err != nil {
			continue
		}
		walkFrames(frame, path+" > "+frameLabel(iframe, i), depth+1, visit)
	}
}

func frameLabel(iframe *rod.Element, index int) string {
	if id, _ := iframe.Attribute("id"); id != nil && *id != "" {
		return "iframe#" + *id
	}
	if name, _ := iframe.Attribute("name"); name != nil && *name != "" {
		return fmt.Sprintf("iframe[name=%s]", *name)
	}
	return fmt.Sprintf("iframe[%d]", index)
}
