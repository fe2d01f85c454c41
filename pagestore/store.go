package pagestore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/leftmike/listscan/listfile"
	"github.com/leftmike/listscan/page"
)

const (
	pagePrefix       = 'p'
	descriptorPrefix = 'd'

	pageKeySize = 1 + 16 + 2 + 4
)

var (
	ErrNotFound = errors.New("pagestore: not found")
)

type Options struct {
	// CachePages is the number of pages to keep in the page cache; zero disables the cache.
	CachePages int
	// Prefetch fills the rest of the buffer passed to FetchPage with the pages which follow
	// the requested page.
	Prefetch bool
	// Registerer, if not nil, is used to register the metrics of the store.
	Registerer prometheus.Registerer
}

type cacheKey struct {
	fileID uuid.UUID
	vpid   page.VPID
}

// Store keeps list files in a KV: each page is stored under its file id and page address,
// and each list id under its file id. It is safe for concurrent use.
type Store struct {
	kv       KV
	cache    *lru.Cache[cacheKey, []byte]
	prefetch bool
	metrics  *Metrics
}

func NewStore(kv KV, opts Options) (*Store, error) {
	st := &Store{
		kv:       kv,
		prefetch: opts.Prefetch,
		metrics:  newMetrics(opts.Registerer),
	}
	if opts.CachePages > 0 {
		var err error
		st.cache, err = lru.New[cacheKey, []byte](opts.CachePages)
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

// OpenStore makes a KV of the named kind and returns a store which uses it.
func OpenStore(kind, dataDir string, logger *log.Logger, opts Options) (*Store, error) {
	kv, err := MakeKV(kind, dataDir, logger)
	if err != nil {
		return nil, err
	}
	st, err := NewStore(kv, opts)
	if err != nil {
		kv.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"store":       kind,
		"data":        dataDir,
		"cache-pages": opts.CachePages,
		"prefetch":    opts.Prefetch,
	}).Info("pagestore: opened")
	return st, nil
}

func (st *Store) Metrics() *Metrics {
	return st.metrics
}

func (st *Store) Close() error {
	if st.cache != nil {
		st.cache.Purge()
	}
	return st.kv.Close()
}

func filePrefix(prefix byte, fileID uuid.UUID) []byte {
	key := make([]byte, 0, pageKeySize)
	key = append(key, prefix)
	return append(key, fileID[:]...)
}

// makePageKey encodes vpid so that keys sort in page address order.
func makePageKey(fileID uuid.UUID, vpid page.VPID) []byte {
	key := filePrefix(pagePrefix, fileID)
	key = binary.BigEndian.AppendUint16(key, uint16(vpid.VolID)^0x8000)
	return binary.BigEndian.AppendUint32(key, uint32(vpid.PageID)^0x80000000)
}

func parsePageKey(key []byte) (page.VPID, bool) {
	if len(key) != pageKeySize || key[0] != pagePrefix {
		return page.NullVPID, false
	}
	return page.VPID{
		VolID:  int16(binary.BigEndian.Uint16(key[17:]) ^ 0x8000),
		PageID: int32(binary.BigEndian.Uint32(key[19:]) ^ 0x80000000),
	}, true
}

func pageKeyRange(fileID uuid.UUID) ([]byte, []byte) {
	minKey := append(filePrefix(pagePrefix, fileID), 0, 0, 0, 0, 0, 0)
	maxKey := append(filePrefix(pagePrefix, fileID), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	return minKey, maxKey
}

func (st *Store) readPage(fileID uuid.UUID, vpid page.VPID, dst []byte) error {
	ck := cacheKey{fileID, vpid}
	if st.cache != nil {
		if buf, ok := st.cache.Get(ck); ok {
			st.metrics.CacheHits.Inc()
			copy(dst, buf)
			return nil
		}
	}

	st.metrics.CacheMisses.Inc()
	err := st.kv.Get(makePageKey(fileID, vpid),
		func(val []byte) error {
			if len(val) != page.Size {
				return fmt.Errorf("pagestore: page %s of %s: got %d bytes want %d", vpid,
					fileID, len(val), page.Size)
			}
			copy(dst, val)
			return nil
		})
	if err == io.EOF {
		return fmt.Errorf("%w: page %s of %s", ErrNotFound, vpid, fileID)
	} else if err != nil {
		return err
	}

	if st.cache != nil {
		st.cache.Add(ck, append(make([]byte, 0, page.Size), dst[:page.Size]...))
	}
	return nil
}

// FetchPage copies the page at vpid to the start of dst and returns the number of bytes
// filled. With prefetch, following pages are copied after it while they fit in dst: the
// overflow page of the last page copied if it has one, else its next page.
func (st *Store) FetchPage(ctx context.Context, fileID uuid.UUID, vpid page.VPID,
	dst []byte) (int, error) {

	st.metrics.Fetches.Inc()
	if err := ctx.Err(); err != nil {
		st.metrics.Errors.WithLabelValues("fetch").Inc()
		return 0, err
	}
	if len(dst) < page.Size {
		st.metrics.Errors.WithLabelValues("fetch").Inc()
		return 0, fmt.Errorf("pagestore: fetch page %s: buffer too small: %d", vpid, len(dst))
	}

	err := st.readPage(fileID, vpid, dst[:page.Size])
	if err != nil {
		st.metrics.Errors.WithLabelValues("fetch").Inc()
		return 0, err
	}

	n := page.Size
	for st.prefetch && n+page.Size <= len(dst) {
		prev := page.Page(dst[n-page.Size : n])
		next := page.OverflowVPID(prev)
		if next.IsNull() {
			next = page.NextVPID(prev)
			if next.IsNull() {
				break
			}
		}
		err = st.readPage(fileID, next, dst[n:n+page.Size])
		if err != nil {
			log.WithFields(log.Fields{
				"file":  fileID,
				"page":  next,
				"error": err,
			}).Debug("pagestore: prefetch stopped")
			break
		}
		n += page.Size
		st.metrics.Prefetched.Inc()
	}

	return n, nil
}

func (st *Store) update(op string, fn func(upd Updater) error) error {
	upd, err := st.kv.Update()
	if err != nil {
		st.metrics.Errors.WithLabelValues(op).Inc()
		return err
	}
	err = fn(upd)
	if err != nil {
		upd.Rollback()
		st.metrics.Errors.WithLabelValues(op).Inc()
		return err
	}
	err = upd.Commit(false)
	if err != nil {
		st.metrics.Errors.WithLabelValues(op).Inc()
	}
	return err
}

// WritePage stores a page of a list file.
func (st *Store) WritePage(ctx context.Context, fileID uuid.UUID, vpid page.VPID,
	buf []byte) error {

	if len(buf) != page.Size {
		return fmt.Errorf("pagestore: write page %s: got %d bytes want %d", vpid, len(buf),
			page.Size)
	}

	err := st.update("write",
		func(upd Updater) error {
			return upd.Set(makePageKey(fileID, vpid), buf)
		})
	if err != nil {
		return err
	}

	st.metrics.Writes.Inc()
	if st.cache != nil {
		st.cache.Add(cacheKey{fileID, vpid}, append(make([]byte, 0, page.Size), buf...))
	}
	return nil
}

// SaveListID stores the list id of a list file.
func (st *Store) SaveListID(ctx context.Context, lid *listfile.ListID) error {
	err := lid.Validate()
	if err != nil {
		return err
	}

	return st.update("save",
		func(upd Updater) error {
			return upd.Set(filePrefix(descriptorPrefix, lid.FileID), listfile.MarshalListID(lid))
		})
}

func (st *Store) LoadListID(ctx context.Context, fileID uuid.UUID) (*listfile.ListID, error) {
	var lid *listfile.ListID
	err := st.kv.Get(filePrefix(descriptorPrefix, fileID),
		func(val []byte) error {
			var err error
			lid, err = listfile.UnmarshalListID(val)
			return err
		})
	if err == io.EOF {
		return nil, fmt.Errorf("%w: list file %s", ErrNotFound, fileID)
	} else if err != nil {
		st.metrics.Errors.WithLabelValues("load").Inc()
		return nil, err
	}
	return lid, nil
}

// ListFiles returns the list ids of all of the list files in the store in file id order.
func (st *Store) ListFiles(ctx context.Context) ([]*listfile.ListID, error) {
	var nilID, maxID uuid.UUID
	for idx := range maxID {
		maxID[idx] = 0xFF
	}

	it, err := st.kv.Iterate(filePrefix(descriptorPrefix, nilID),
		filePrefix(descriptorPrefix, maxID))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var lids []*listfile.ListID
	for {
		err = it.Item(
			func(key, val []byte) error {
				lid, err := listfile.UnmarshalListID(val)
				if err != nil {
					return err
				}
				lids = append(lids, lid)
				return nil
			})
		if err == io.EOF {
			return lids, nil
		} else if err != nil {
			st.metrics.Errors.WithLabelValues("list").Inc()
			return nil, err
		}
	}
}

// DropFile removes the pages and list id of a list file.
func (st *Store) DropFile(ctx context.Context, fileID uuid.UUID) error {
	minKey, maxKey := pageKeyRange(fileID)
	it, err := st.kv.Iterate(minKey, maxKey)
	if err != nil {
		return err
	}

	var vpids []page.VPID
	for {
		err = it.Item(
			func(key, val []byte) error {
				vpid, ok := parsePageKey(key)
				if !ok {
					return fmt.Errorf("pagestore: bad page key: %v", key)
				}
				vpids = append(vpids, vpid)
				return nil
			})
		if err != nil {
			break
		}
	}
	it.Close()
	if err != io.EOF {
		st.metrics.Errors.WithLabelValues("drop").Inc()
		return err
	}

	var found bool
	err = st.update("drop",
		func(upd Updater) error {
			dkey := filePrefix(descriptorPrefix, fileID)
			err := upd.Get(dkey,
				func(val []byte) error {
					found = true
					return nil
				})
			if err == nil {
				err = upd.Delete(dkey)
				if err != nil {
					return err
				}
			} else if err != io.EOF {
				return err
			}

			for _, vpid := range vpids {
				err := upd.Delete(makePageKey(fileID, vpid))
				if err != nil {
					return err
				}
			}
			return nil
		})
	if err != nil {
		return err
	}

	if st.cache != nil {
		for _, vpid := range vpids {
			st.cache.Remove(cacheKey{fileID, vpid})
		}
	}
	if !found && len(vpids) == 0 {
		return fmt.Errorf("%w: list file %s", ErrNotFound, fileID)
	}

	log.WithFields(log.Fields{
		"file":  fileID,
		"pages": len(vpids),
	}).Debug("pagestore: dropped list file")
	return nil
}
