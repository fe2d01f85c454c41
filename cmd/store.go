package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/leftmike/listscan/cursor"
	"github.com/leftmike/listscan/listfile"
	"github.com/leftmike/listscan/pagestore"
)

var (
	store       = "bbolt"
	dataDir     = "testdata"
	areaPages   = cursor.DefaultAreaPages
	cachePages  = 64
	prefetch    = true
	metricsAddr = ""

	registry = prometheus.NewRegistry()
	openSt   *pagestore.Store
)

func initStoreFlags(fs *pflag.FlagSet) {
	fs.StringVar(&store, "store", store, "page store to use: btree, badger, bbolt, or pebble")
	cfgVars["store"] = fs.Lookup("store")

	fs.StringVar(&dataDir, "data", dataDir, "`directory` containing the page store")
	cfgVars["data"] = fs.Lookup("data")

	fs.IntVar(&cachePages, "cache-pages", cachePages, "number of pages to cache in the store")
	cfgVars["cache-pages"] = fs.Lookup("cache-pages")

	fs.BoolVar(&prefetch, "prefetch", prefetch, "fetch the pages following a page with it")
	cfgVars["prefetch"] = fs.Lookup("prefetch")

	fs.StringVar(&metricsAddr, "metrics-addr", metricsAddr,
		"`address` to serve prometheus metrics on; empty to not serve them")
	cfgVars["metrics-addr"] = fs.Lookup("metrics-addr")
}

func initCursorFlags(fs *pflag.FlagSet) {
	initStoreFlags(fs)

	fs.IntVar(&areaPages, "area-pages", areaPages, "number of pages in each cursor's area")
	cfgVars["area-pages"] = fs.Lookup("area-pages")
}

func openStore() (*pagestore.Store, error) {
	st, err := pagestore.OpenStore(store, dataDir, log.StandardLogger(),
		pagestore.Options{
			CachePages: cachePages,
			Prefetch:   prefetch,
			Registerer: registry,
		})
	if err != nil {
		return nil, fmt.Errorf("listscan: %s", err)
	}
	openSt = st

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			err := http.ListenAndServe(metricsAddr, mux)
			log.WithField("addr", metricsAddr).WithError(err).Error("listscan: metrics server")
		}()
	}
	return st, nil
}

func closeStore() {
	if openSt != nil {
		err := openSt.Close()
		if err != nil {
			log.WithError(err).Error("listscan: close store")
		}
		openSt = nil
	}
}

func loadListID(st *pagestore.Store, arg string) (*listfile.ListID, error) {
	fileID, err := uuid.Parse(arg)
	if err != nil {
		return nil, fmt.Errorf("listscan: file id: %s", err)
	}
	lid, err := st.LoadListID(context.Background(), fileID)
	if err != nil {
		return nil, fmt.Errorf("listscan: %s: %w", fileID, err)
	}
	return lid, nil
}

// openCursor opens a cursor over the list file with the file id arg.
func openCursor(arg string) (*cursor.Cursor, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	lid, err := loadListID(st, arg)
	if err != nil {
		return nil, err
	}
	return cursor.Open(st, lid, &cursor.Options{AreaPages: areaPages})
}
