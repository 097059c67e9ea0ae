package browser

import (
	"github.com/playwright-community/playwright-go"
)

func (p *playwrightPage) Observe(obs Observer) {
	if obs == nil {
		return
	}

	p.page.OnConsole(func(msg playwright.ConsoleMessage) {
		obs.OnConsole(msg.Type(), msg.Text())
	})

	p.page.OnPageError(func(err error) {
		obs.OnPageError(err)
	})

	p.page.OnRequestFailed(func(request playwright.Request) {
		reason := ""
		if err := request.Failure(); err != nil {
			reason = err.Error()
		}
		obs.OnRequestFailed(request.URL(), reason)
	})

	p.page.OnResponse(func(response playwright.Response) {
		obs.OnResponse(response.URL(), response.Status())
	})
}
