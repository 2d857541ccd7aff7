package home

import (
	"errors"
	"fmt"

	"github.com/leeineian/brewbot/proc"
	"github.com/leeineian/brewbot/sys"
)

func homebrewReload(r responder) {
	catalog := homebrewCatalog()
	if catalog == nil {
		homebrewReplyText(r, sys.MsgHomebrewNotReady)
		return
	}

	actor := r.Actor()
	if !sys.CanReloadCatalog(sys.GlobalConfig, actor) {
		homebrewReplyText(r, sys.MsgHomebrewNoPermission)
		return
	}
	sys.LogHomebrew(sys.MsgHomebrewReloadBy, r.Describe(), actor.UserID)

	if err := r.Defer(); err != nil {
		sys.LogHomebrewError(sys.MsgHomebrewRespondFail, r.Describe(), err)
	}

	count, err := catalog.RequestReload(sys.AppContext)
	homebrewReplyText(r, reloadText(count, catalog.RepoURL(), err))
}

func reloadText(count int, repoURL string, err error) string {
	var throttled *proc.ThrottledError
	switch {
	case errors.As(err, &throttled):
		return fmt.Sprintf(sys.MsgHomebrewReloadThrottled, sys.FormatDuration(throttled.RetryAfter))
	case err != nil:
		return fmt.Sprintf(sys.MsgHomebrewReloadError, err)
	}
	return fmt.Sprintf(sys.MsgHomebrewReloadOK, count, repoURL)
}
