// Package outreach builds the email queue and its store write-backs.
package outreach

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/model"
)

// Queue is the outreach plan for one run: the (prospect, email) pairs to
// send and the per-record status updates to write once they are queued.
type Queue struct {
	Items   []model.QueueItem
	Updates []model.ContactUpdate
}

// Suppressed collects every address already contacted, lowercased: the
// emailed_to list plus the record's own addresses for each contacted record.
func Suppressed(prospects []model.Prospect) map[string]bool {
	set := make(map[string]bool)
	for _, p := range prospects {
		if !strings.EqualFold(p.Status, model.StatusContacted) {
			continue
		}
		for _, e := range p.Emails() {
			set[strings.ToLower(e)] = true
		}
		for _, e := range strings.Split(p.EmailedTo, ",") {
			if e = strings.TrimSpace(e); e != "" {
				set[strings.ToLower(e)] = true
			}
		}
	}
	return set
}

// Build selects prospects ready for outreach. Records already marked
// contacted are skipped, as is any address in the suppression set
// (case-insensitive). A record with no surviving address produces neither
// queue items nor an update. When sendLimit is positive the queue is
// truncated first; updates are then derived from the surviving items, so
// emailed_to never lists an address the cap kept out of the queue.
func Build(prospects []model.Prospect, suppressed map[string]bool, sendLimit int, now time.Time) Queue {
	emailedAt := model.ISO8601(now)

	var q Queue
	for _, p := range prospects {
		if strings.EqualFold(p.Status, model.StatusContacted) {
			continue
		}
		if p.WebsiteURL == "" {
			continue
		}
		for _, e := range p.Emails() {
			if suppressed[strings.ToLower(e)] {
				continue
			}
			q.Items = append(q.Items, model.QueueItem{Prospect: p, Email: e})
		}
	}

	if sendLimit > 0 && len(q.Items) > sendLimit {
		q.Items = q.Items[:sendLimit]
	}

	byURL := make(map[string]int, len(q.Items))
	for _, item := range q.Items {
		url := item.Prospect.WebsiteURL
		if i, ok := byURL[url]; ok {
			q.Updates[i].EmailedTo += "," + item.Email
			continue
		}
		byURL[url] = len(q.Updates)
		q.Updates = append(q.Updates, model.ContactUpdate{
			WebsiteURL:    url,
			Status:        model.StatusContacted,
			LastEmailedAt: emailedAt,
			EmailedTo:     item.Email,
		})
	}

	zap.L().Debug("outreach queue built",
		zap.Int("items", len(q.Items)),
		zap.Int("updates", len(q.Updates)),
	)
	return q
}
