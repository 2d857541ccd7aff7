package home

import (
	"fmt"

	"github.com/leeineian/brewbot/proc"
	"github.com/leeineian/brewbot/sys"
)

func homebrewCount(r responder) {
	catalog := homebrewCatalog()
	if catalog == nil {
		homebrewReplyText(r, sys.MsgHomebrewNotReady)
		return
	}
	homebrewReplyText(r, countText(catalog.PackageCount(), catalog.RepoURL(), lastRefreshLine(catalog)))
}

func countText(count int, repoURL, lastLine string) string {
	text := fmt.Sprintf(sys.MsgHomebrewCount, count, repoURL)
	if lastLine != "" {
		text += "\n" + lastLine
	}
	return text
}

// lastRefreshLine prefers the in-memory outcome and falls back to the refresh history.
func lastRefreshLine(catalog *proc.CatalogService) string {
	if last := catalog.LastRefresh(); last != nil {
		if last.Err != nil {
			return fmt.Sprintf(sys.MsgHomebrewLastRefreshFail, last.At.Unix(), last.Err)
		}
		return fmt.Sprintf(sys.MsgHomebrewLastRefresh, last.At.Unix())
	}

	row, err := sys.GetLastCatalogRefresh(sys.AppContext)
	if err != nil || row == nil {
		return ""
	}
	if row.Failed() {
		return fmt.Sprintf(sys.MsgHomebrewLastRefreshFail, row.StartedAt.Unix(), row.Error)
	}
	return fmt.Sprintf(sys.MsgHomebrewLastRefresh, row.StartedAt.Unix())
}
