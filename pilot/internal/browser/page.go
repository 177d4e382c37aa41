package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Page is one browser tab prepared for a run: stealth patches applied and
// resource blocking installed.
type Page struct {
	Page   *rod.Page
	router *rod.HijackRouter
	mgr    *Manager
}

// OpenPage creates a blank tab on the manager's browser. Navigation is left
// to the caller so the first step of a run owns it.
func OpenPage(ctx context.Context, mgr *Manager) (*Page, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if mgr.cfg.Stealth >= LevelHeadless {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	p := &Page{Page: page.Context(ctx), mgr: mgr}
	if len(mgr.cfg.ResourceBlocking) > 0 {
		p.router = blockResources(page, mgr.cfg.ResourceBlocking)
	}
	return p, nil
}

// Driver returns a sequence driver bound to this tab.
func (p *Page) Driver() *Driver {
	return NewDriver(p.Page, DriverConfig{NavTimeout: p.mgr.cfg.NavTimeout, Logger: p.mgr.cfg.Logger})
}

// Close stops request interception and closes the tab.
func (p *Page) Close() error {
	if p.router != nil {
		if err := p.router.Stop(); err != nil {
			p.mgr.cfg.Logger.Debug("browser: stop hijack router", "error", err)
		}
	}
	if p.Page != nil {
		return p.Page.Close()
	}
	return nil
}
