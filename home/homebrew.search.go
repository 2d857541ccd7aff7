package home

import (
	"errors"
	"strings"

	"github.com/leeineian/brewbot/proc"
	"github.com/leeineian/brewbot/sys"
)

func homebrewSearch(r responder, term string) {
	catalog := homebrewCatalog()
	if catalog == nil {
		homebrewReplyText(r, sys.MsgHomebrewNotReady)
		return
	}

	term = strings.TrimSpace(term)
	names, err := catalog.SearchPackages(term)
	if errors.Is(err, proc.ErrInvalidSearchTerm) {
		homebrewReplyText(r, sys.MsgHomebrewInvalidSearch)
		return
	}

	homebrewSend(r, renderSearch(term, names, catalog.FindPackage, currentRenderOptions()))
}
