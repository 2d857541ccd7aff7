package home

import (
	"github.com/leeineian/brewbot/proc"
	"github.com/leeineian/brewbot/sys"
)

func homebrewList(r responder, b proc.Bucket) {
	catalog := homebrewCatalog()
	if catalog == nil {
		homebrewReplyText(r, sys.MsgHomebrewNotReady)
		return
	}
	homebrewSend(r, renderBucket(b, catalog.ListByCategory(b), currentRenderOptions()))
}
