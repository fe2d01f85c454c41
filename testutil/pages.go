package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/leftmike/listscan/page"
)

var (
	ErrInjected = errors.New("testutil: injected fetch failure")
)

type pageKey struct {
	fileID uuid.UUID
	vpid   page.VPID
}

// Pages is an in memory page store for tests. It counts the pages fetched and can fail
// fetches on demand. When Prefetch is set, FetchPage fills as much of dst as it can with
// the pages which follow the requested page: the overflow page if there is one, else the
// next page.
type Pages struct {
	mu       sync.Mutex
	pages    map[pageKey][]byte
	Prefetch bool
	// Fail, if not nil, is called before each fetch; a non-nil error fails the fetch.
	Fail    func(vpid page.VPID) error
	Fetches []page.VPID
}

func NewPages() *Pages {
	return &Pages{
		pages: map[pageKey][]byte{},
	}
}

func (p *Pages) WritePage(ctx context.Context, fileID uuid.UUID, vpid page.VPID,
	buf []byte) error {

	if len(buf) != page.Size {
		return fmt.Errorf("testutil: write page %s: got %d bytes want %d", vpid, len(buf),
			page.Size)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pages[pageKey{fileID, vpid}] = append(make([]byte, 0, page.Size), buf...)
	return nil
}

func (p *Pages) FetchPage(ctx context.Context, fileID uuid.UUID, vpid page.VPID,
	dst []byte) (int, error) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Fail != nil {
		err := p.Fail(vpid)
		if err != nil {
			return 0, err
		}
	}
	p.Fetches = append(p.Fetches, vpid)

	buf, ok := p.pages[pageKey{fileID, vpid}]
	if !ok {
		return 0, fmt.Errorf("testutil: page %s of %s not found", vpid, fileID)
	}
	if len(dst) < page.Size {
		return 0, fmt.Errorf("testutil: fetch page %s: buffer too small: %d", vpid, len(dst))
	}
	n := copy(dst, buf)

	for p.Prefetch && n+page.Size <= len(dst) {
		vpid = page.OverflowVPID(buf)
		if vpid.IsNull() {
			vpid = page.NextVPID(buf)
			if vpid.IsNull() {
				break
			}
		}
		buf, ok = p.pages[pageKey{fileID, vpid}]
		if !ok {
			break
		}
		n += copy(dst[n:], buf)
	}
	return n, nil
}

// Page returns the page stored at vpid or nil.
func (p *Pages) Page(fileID uuid.UUID, vpid page.VPID) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.pages[pageKey{fileID, vpid}]
}

// FetchCount returns the number of fetches so far and resets the list of fetches.
func (p *Pages) FetchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.Fetches)
	p.Fetches = nil
	return n
}
