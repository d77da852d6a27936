package crm

import "context"

// ContactLister is the listing surface needed by the pager and the contact index.
type ContactLister interface {
	ListContacts(ctx context.Context, limit, offset int) (ContactPage, error)
}

// ContactPager walks the full contact set page by page. It is finite and not
// restartable: iteration ends when the reported total is reached, a short page
// comes back, or the page cap fires. The cap bounds iteration against a
// misbehaving API that keeps reporting more records.
type ContactPager struct {
	lister   ContactLister
	limit    int
	maxPages int

	offset int
	pages  int
	total  int
	done   bool
}

// NewContactPager creates a pager over lister. limit is the page size,
// maxPages caps how many pages will ever be fetched.
func NewContactPager(lister ContactLister, limit, maxPages int) *ContactPager {
	if limit <= 0 {
		limit = 100
	}
	if maxPages <= 0 {
		maxPages = 50
	}
	return &ContactPager{
		lister:   lister,
		limit:    limit,
		maxPages: maxPages,
		total:    -1,
	}
}

// More reports whether another page may be available.
func (p *ContactPager) More() bool {
	return !p.done
}

// Next fetches the next page. It returns an empty slice once the sequence is
// exhausted; callers should loop with More.
func (p *ContactPager) Next(ctx context.Context) ([]Contact, error) {
	if p.done {
		return nil, nil
	}
	if p.pages >= p.maxPages {
		p.done = true
		return nil, nil
	}

	page, err := p.lister.ListContacts(ctx, p.limit, p.offset)
	if err != nil {
		p.done = true
		return nil, err
	}

	p.pages++
	p.offset += len(page.Records)
	p.total = page.TotalCount

	if len(page.Records) < p.limit || (p.total >= 0 && p.offset >= p.total) {
		p.done = true
	}
	return page.Records, nil
}
