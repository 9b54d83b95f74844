package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ResponseMatch selects a network response by exact URL and HTTP method.
type ResponseMatch struct {
	URL    string
	Method string
}

func (m ResponseMatch) Matches(url, method string) bool {
	return url == m.URL && strings.EqualFold(method, m.Method)
}

// WaitResponse arms a one-shot listener for the first request matching m,
// runs trigger, and returns that request's response body once it has loaded.
// The listener is subscribed before trigger runs, so a fast response cannot
// be missed.
func (p *Page) WaitResponse(ctx context.Context, m ResponseMatch, trigger func() error) ([]byte, error) {
	rp, cancel := p.page.Context(ctx).WithCancel()
	defer cancel()

	if err := (proto.NetworkEnable{}).Call(rp); err != nil {
		return nil, fmt.Errorf("enable network events: %w", err)
	}

	var (
		requestID proto.NetworkRequestID
		loaded    bool
		failure   string
	)

	wait := rp.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			if requestID == "" && e.Request != nil && m.Matches(e.Request.URL, e.Request.Method) {
				requestID = e.RequestID
			}
		},
		func(e *proto.NetworkLoadingFinished) bool {
			if requestID != "" && e.RequestID == requestID {
				loaded = true
				return true
			}
			return false
		},
		func(e *proto.NetworkLoadingFailed) bool {
			if requestID != "" && e.RequestID == requestID {
				failure = e.ErrorText
				return true
			}
			return false
		},
	)

	if err := trigger(); err != nil {
		return nil, err
	}
	wait()

	if !loaded {
		if failure != "" {
			return nil, fmt.Errorf("%s %s failed: %s", m.Method, m.URL, failure)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("wait for %s %s: %w", m.Method, m.URL, err)
		}
		return nil, fmt.Errorf("wait for %s %s: listener stopped", m.Method, m.URL)
	}

	res, err := proto.NetworkGetResponseBody{RequestID: requestID}.Call(p.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	p.log.Debug("captured response", zap.String("url", m.URL), zap.Int("bytes", len(res.Body)))

	if res.Base64Encoded {
		return base64.StdEncoding.DecodeString(res.Body)
	}
	return []byte(res.Body), nil
}
