// Package model defines the records passed between pipeline phases.
package model

import (
	"strings"
	"time"
)

// Recognized prospect statuses. Status is free text in the store; these are
// the two values the pipeline itself writes.
const (
	StatusDiscovered = "discovered"
	StatusContacted  = "contacted"
)

// Prospects table column names.
const (
	ColCompanyName   = "company_name"
	ColWebsiteURL    = "website_url"
	ColDomain        = "domain"
	ColSourceKeyword = "source_keyword"
	ColContactMethod = "contact_method"
	ColPrimaryEmail  = "primary_email"
	ColAllEmails     = "all_emails"
	ColStatus        = "status"
	ColNotes         = "notes"
	ColLastCheckedAt = "last_checked_at"
	ColLastEmailedAt = "last_emailed_at"
	ColEmailedTo     = "emailed_to"
)

// ProspectColumns is the canonical column order for the prospects table.
// Keep this order stable; it is the migration and export order.
var ProspectColumns = []string{
	ColCompanyName,
	ColWebsiteURL,
	ColDomain,
	ColSourceKeyword,
	ColContactMethod,
	ColPrimaryEmail,
	ColAllEmails,
	ColStatus,
	ColNotes,
	ColLastCheckedAt,
	ColLastEmailedAt,
	ColEmailedTo,
}

// RunColumns is the canonical column order for the runs table.
var RunColumns = []string{
	"run_id",
	"started_at",
	"finished_at",
	"urls_seeded_count",
	"sites_scraped_count",
	"enriched_count",
	"written_count",
	"emails_sent_count",
	"errors_count",
	"top_error",
}

// Prospect is one durable lead record. Domain is the primary dedup key;
// WebsiteURL is the join key used by enrichment.
type Prospect struct {
	RowID         int64
	CompanyName   string
	WebsiteURL    string
	Domain        string
	SourceKeyword string
	ContactMethod string
	PrimaryEmail  string
	AllEmails     string
	Status        string
	Notes         string
	LastCheckedAt string
	LastEmailedAt string
	EmailedTo     string
}

// ProspectFromRow builds a Prospect from a store row, keyed by header name.
// Columns absent from the header are left zero.
func ProspectFromRow(header []string, rowID int64, cells []string) Prospect {
	p := Prospect{RowID: rowID}
	for i, col := range header {
		var v string
		if i < len(cells) {
			v = strings.TrimSpace(cells[i])
		}
		switch col {
		case ColCompanyName:
			p.CompanyName = v
		case ColWebsiteURL:
			p.WebsiteURL = v
		case ColDomain:
			p.Domain = v
		case ColSourceKeyword:
			p.SourceKeyword = v
		case ColContactMethod:
			p.ContactMethod = v
		case ColPrimaryEmail:
			p.PrimaryEmail = v
		case ColAllEmails:
			p.AllEmails = v
		case ColStatus:
			p.Status = v
		case ColNotes:
			p.Notes = v
		case ColLastCheckedAt:
			p.LastCheckedAt = v
		case ColLastEmailedAt:
			p.LastEmailedAt = v
		case ColEmailedTo:
			p.EmailedTo = v
		}
	}
	return p
}

// Emails returns the record's addresses: all_emails when present, otherwise
// primary_email, comma-split with blanks dropped.
func (p Prospect) Emails() []string {
	raw := p.AllEmails
	if raw == "" {
		raw = p.PrimaryEmail
	}
	var out []string
	for _, e := range strings.Split(raw, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Candidate is a discovery seed: one domain-unique search hit for this run.
type Candidate struct {
	URL           string
	Domain        string
	SourceKeyword string
	Query         string
	Pack          string
}

// Row renders the candidate as an upsert row keyed by domain.
func (c Candidate) Row() map[string]string {
	return map[string]string{
		ColWebsiteURL:    c.URL,
		ColDomain:        c.Domain,
		ColSourceKeyword: c.SourceKeyword,
		ColStatus:        StatusDiscovered,
	}
}

// CrawlItem is one URL selected for fetching, deduplicated by domain.
type CrawlItem struct {
	URL    string
	Domain string
}

// FetchStatusError marks a fetch that failed before an HTTP status was read.
const FetchStatusError = "error"

// FetchResult is the per-URL extraction output. Status is the numeric HTTP
// status code as a string, or FetchStatusError for transport failures.
type FetchResult struct {
	URL          string
	Status       string
	Title        string
	Description  string
	PrimaryEmail string
	AllEmails    string
	Error        string
}

// Patch is an enrichment update keyed by website_url. Empty fields mean
// "leave unchanged"; the upsert merge rule decides per column.
type Patch struct {
	WebsiteURL    string
	CompanyName   string
	Title         string
	Description   string
	PrimaryEmail  string
	AllEmails     string
	ContactMethod string
	LastCheckedAt string
}

// Row renders the patch as an upsert row keyed by website_url. Title and
// description are included; stores without those columns drop them.
func (p Patch) Row() map[string]string {
	return map[string]string{
		ColWebsiteURL:    p.WebsiteURL,
		ColCompanyName:   p.CompanyName,
		"title":          p.Title,
		"description":    p.Description,
		ColPrimaryEmail:  p.PrimaryEmail,
		ColAllEmails:     p.AllEmails,
		ColContactMethod: p.ContactMethod,
		ColLastCheckedAt: p.LastCheckedAt,
	}
}

// QueueItem is one (prospect, email) pair awaiting outreach.
type QueueItem struct {
	Prospect Prospect
	Email    string
}

// ContactUpdate is the store write-back for one queued prospect.
type ContactUpdate struct {
	WebsiteURL    string
	Status        string
	LastEmailedAt string
	EmailedTo     string
}

// Row renders the update as an upsert row keyed by website_url.
func (u ContactUpdate) Row() map[string]string {
	return map[string]string{
		ColWebsiteURL:    u.WebsiteURL,
		ColStatus:        u.Status,
		ColLastEmailedAt: u.LastEmailedAt,
		ColEmailedTo:     u.EmailedTo,
	}
}

// RunSummary is the per-run log row, appended best-effort even on failure.
type RunSummary struct {
	RunID        string
	StartedAt    string
	FinishedAt   string
	URLsSeeded   int
	SitesScraped int
	Enriched     int
	Written      int
	EmailsSent   int
	Errors       int
	TopError     string
}

// ISO8601 formats a time as UTC ISO-8601 with second precision and a
// trailing Z, the timestamp format used across the store.
func ISO8601(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}
