package home

import (
	"strings"

	"github.com/leeineian/brewbot/sys"
)

func homebrewInfo(r responder, query string) {
	catalog := homebrewCatalog()
	if catalog == nil {
		homebrewReplyText(r, sys.MsgHomebrewNotReady)
		return
	}

	pkg, ok := catalog.FindPackage(strings.TrimSpace(query))
	if !ok {
		homebrewReplyText(r, sys.MsgHomebrewNotFound)
		return
	}
	homebrewSend(r, renderInfo(pkg, currentRenderOptions()))
}
