// Package application contains use-case orchestration services.
package application

import (
	"time"

	"github.com/branchpulse/branchpulse/internal/domain/model"
)

// PRMap maps a head branch name to its pull-request category (open_pr or
// closed_pr). It is built once per fetch session, before classification
// begins, and never mutated afterwards.
type PRMap map[string]model.Category

// BuildPRMap indexes pull requests by head ref. When a branch has several
// pull requests the last one listed wins, matching how the map was always
// built for this tool.
func BuildPRMap(heads []model.PullRequestHead) PRMap {
	prMap := make(PRMap, len(heads))
	for _, head := range heads {
		if head.State == "open" {
			prMap[head.Ref] = model.CategoryOpenPR
		} else {
			prMap[head.Ref] = model.CategoryClosedPR
		}
	}
	return prMap
}

// Classify assigns exactly one category to a branch. Staleness is checked
// first: a branch whose tip commit is more than staleDays whole days old is
// stale even when it has an open pull request. Only non-stale branches
// consult the PR map; branches absent from it fall through to no_pr.
func Classify(branch string, lastCommit time.Time, prMap PRMap, now time.Time, staleDays int) model.Category {
	if int(now.Sub(lastCommit).Hours()/24) > staleDays {
		return model.CategoryStale
	}
	if category, ok := prMap[branch]; ok {
		return category
	}
	return model.CategoryNoPR
}
